package entity

import (
	"time"
)

// Transaction represents an Ethereum transaction event from NATS
type Transaction struct {
	Hash        string    `json:"hash"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Value       string    `json:"value"`
	Data        string    `json:"data"`
	BlockNumber string    `json:"block_number"`
	BlockHash   string    `json:"block_hash"`
	Timestamp   time.Time `json:"timestamp"`
	GasUsed     string    `json:"gas_used"`
	GasPrice    string    `json:"gas_price"`
	Network     string    `json:"network"`
}

// TransactionCall is a transaction together with its decoded calldata
type TransactionCall struct {
	Hash        string       `json:"hash"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Value       string       `json:"value"`
	BlockNumber string       `json:"block_number"`
	Network     string       `json:"network,omitempty"`
	Call        *DecodedCall `json:"call,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// BlockCalls is a block header summary with every transaction decoded
type BlockCalls struct {
	Number       uint64            `json:"number"`
	Hash         string            `json:"hash"`
	ParentHash   string            `json:"parentHash"`
	Timestamp    time.Time         `json:"timestamp"`
	Miner        string            `json:"miner"`
	GasUsed      uint64            `json:"gasUsed"`
	Transactions []TransactionCall `json:"transactions"`
	Contracts    []ContractProfile `json:"contracts,omitempty"`
}

// Block is a fetched block with its raw transactions
type Block struct {
	Number       uint64
	Hash         string
	ParentHash   string
	Timestamp    time.Time
	Miner        string
	GasUsed      uint64
	Transactions []Transaction
}
