package blockchain

import (
	"chain-explorer/internal/domain/entity"
)

// ABI source names, also used as precedence keys
const (
	SourceERC20   = "erc20"
	SourceERC721  = "erc721"
	SourceERC1155 = "erc1155"
)

// DefaultPrecedence lists ABI sources from lowest to highest precedence.
// A source later in the list replaces earlier entries that share a selector.
var DefaultPrecedence = []string{SourceERC20, SourceERC721, SourceERC1155}

func fn(name string, inputs ...entity.AbiParam) entity.AbiFunctionFragment {
	return entity.AbiFunctionFragment{Name: name, Inputs: inputs}
}

func in(name, typ string) entity.AbiParam {
	return entity.AbiParam{Name: name, Type: typ}
}

// ERC-20 (EIP-20)
//
//	transfer(address,uint256)             0xa9059cbb
//	transferFrom(address,address,uint256) 0x23b872dd
//	approve(address,uint256)              0x095ea7b3
//	balanceOf(address)                    0x70a08231
var erc20Fragments = []entity.AbiFunctionFragment{
	fn("name"),
	fn("symbol"),
	fn("decimals"),
	fn("totalSupply"),
	fn("balanceOf", in("_owner", "address")),
	fn("allowance", in("_owner", "address"), in("_spender", "address")),
	fn("transfer", in("_to", "address"), in("_value", "uint256")),
	fn("approve", in("_spender", "address"), in("_value", "uint256")),
	fn("transferFrom", in("_from", "address"), in("_to", "address"), in("_value", "uint256")),
}

// ERC-721 (EIP-721 with metadata extension)
//
//	safeTransferFrom(address,address,uint256)       0x42842e0e
//	safeTransferFrom(address,address,uint256,bytes) 0xb88d4fde
//	ownerOf(uint256)                                0x6352211e
//	setApprovalForAll(address,bool)                 0xa22cb465
var erc721Fragments = []entity.AbiFunctionFragment{
	fn("supportsInterface", in("interfaceId", "bytes4")),
	fn("name"),
	fn("symbol"),
	fn("tokenURI", in("tokenId", "uint256")),
	fn("balanceOf", in("owner", "address")),
	fn("ownerOf", in("tokenId", "uint256")),
	fn("safeTransferFrom", in("from", "address"), in("to", "address"), in("tokenId", "uint256"), in("data", "bytes")),
	fn("safeTransferFrom", in("from", "address"), in("to", "address"), in("tokenId", "uint256")),
	fn("transferFrom", in("from", "address"), in("to", "address"), in("tokenId", "uint256")),
	fn("approve", in("to", "address"), in("tokenId", "uint256")),
	fn("setApprovalForAll", in("operator", "address"), in("_approved", "bool")),
	fn("getApproved", in("tokenId", "uint256")),
	fn("isApprovedForAll", in("owner", "address"), in("operator", "address")),
}

// ERC-1155 (EIP-1155 with metadata URI extension)
//
//	safeTransferFrom(address,address,uint256,uint256,bytes)          0xf242432a
//	safeBatchTransferFrom(address,address,uint256[],uint256[],bytes) 0x2eb2c2d6
var erc1155Fragments = []entity.AbiFunctionFragment{
	fn("supportsInterface", in("interfaceId", "bytes4")),
	fn("uri", in("id", "uint256")),
	fn("balanceOf", in("account", "address"), in("id", "uint256")),
	fn("balanceOfBatch", in("accounts", "address[]"), in("ids", "uint256[]")),
	fn("setApprovalForAll", in("operator", "address"), in("approved", "bool")),
	fn("isApprovedForAll", in("account", "address"), in("operator", "address")),
	fn("safeTransferFrom", in("from", "address"), in("to", "address"), in("id", "uint256"), in("amount", "uint256"), in("data", "bytes")),
	fn("safeBatchTransferFrom", in("from", "address"), in("to", "address"), in("ids", "uint256[]"), in("amounts", "uint256[]"), in("data", "bytes")),
}

// DefaultAbiCollections returns the built-in token ABIs in DefaultPrecedence order
func DefaultAbiCollections() []entity.AbiCollection {
	return OrderCollections([]entity.AbiCollection{
		{Source: SourceERC1155, Fragments: erc1155Fragments},
		{Source: SourceERC20, Fragments: erc20Fragments},
		{Source: SourceERC721, Fragments: erc721Fragments},
	}, DefaultPrecedence)
}

// OrderCollections arranges collections by precedence. Collections whose source is
// not listed keep their relative order and come after the listed ones.
func OrderCollections(collections []entity.AbiCollection, precedence []string) []entity.AbiCollection {
	rank := make(map[string]int, len(precedence))
	for i, source := range precedence {
		rank[source] = i
	}

	ordered := make([]entity.AbiCollection, 0, len(collections))
	for _, source := range precedence {
		for _, c := range collections {
			if c.Source == source {
				ordered = append(ordered, c)
			}
		}
	}
	for _, c := range collections {
		if _, ok := rank[c.Source]; !ok {
			ordered = append(ordered, c)
		}
	}
	return ordered
}
