package api

import (
	"encoding/json"
	"net/http"

	"chain-explorer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// ApiResponse is the envelope of every API response
type ApiResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

func sendResponse(w http.ResponseWriter, log *logger.Logger, route string, code int, status string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(&ApiResponse{Status: status, Data: data}); err != nil {
		log.Error("Failed to serialize API response", zap.String("route", route), zap.Error(err))
	}
}

func sendOKResponse(w http.ResponseWriter, log *logger.Logger, route string, data interface{}) {
	sendResponse(w, log, route, http.StatusOK, "OK", data)
}

func sendBadRequestResponse(w http.ResponseWriter, log *logger.Logger, route, message string) {
	sendResponse(w, log, route, http.StatusBadRequest, "ERROR: "+message, nil)
}

func sendServerErrorResponse(w http.ResponseWriter, log *logger.Logger, route, message string) {
	sendResponse(w, log, route, http.StatusInternalServerError, "ERROR: "+message, nil)
}

// sendPartialResponse reports an upstream failure together with what was gathered before it
func sendPartialResponse(w http.ResponseWriter, log *logger.Logger, route, message string, data interface{}) {
	sendResponse(w, log, route, http.StatusBadGateway, "ERROR: "+message, data)
}
