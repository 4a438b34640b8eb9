package api

import (
	"errors"
	"net/http"

	"akcache/pkg/apperr"
	"akcache/pkg/core"
)

// DataResponse 成功响应统一信封：数据 + 核心服务产出的结构化元数据
type DataResponse struct {
	Data     interface{} `json:"data"`
	Metadata *core.Meta  `json:"metadata,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// httpStatusFor 错误码到HTTP状态码的映射。
// 调用方输入问题归400，仓储故障归500，上游不可用归503。
func httpStatusFor(err error) int {
	switch {
	case apperr.IsCode(err, apperr.InvalidSymbol),
		apperr.IsCode(err, apperr.InvalidDateRange),
		apperr.IsCode(err, apperr.InvalidAdjust):
		return http.StatusBadRequest
	case apperr.IsCode(err, apperr.NoData):
		return http.StatusNotFound
	case apperr.IsCode(err, apperr.UpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody 构造错误响应体，链上没有 apperr 错误时归为 STORE_ERROR
func errorBody(err error) ErrorResponse {
	code := apperr.StoreError
	var e *apperr.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return ErrorResponse{Error: string(code), Message: err.Error()}
}
