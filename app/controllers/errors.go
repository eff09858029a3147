package controllers

import (
	"errors"
	"net/http"

	"github.com/address-simplifier/app/services"
	"github.com/address-simplifier/internal/oracle"
)

// errorResponse maps a search error to its HTTP status and message
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidAddress):
		return http.StatusBadRequest, services.ErrInvalidAddress.Error()
	case errors.Is(err, oracle.ErrUnavailable):
		return http.StatusInternalServerError, "伺服器錯誤：瀏覽器工作階段初始化失敗 - " + err.Error()
	default:
		return http.StatusInternalServerError, "處理地址時發生錯誤: " + err.Error()
	}
}
