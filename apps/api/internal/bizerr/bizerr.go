package bizerr

import (
	"errors"
	"fmt"

	"WaveChat/consts"
)

// BizError 携带业务错误码的错误。
// service 层返回它，handler 层用 ExtractErrorCode 还原业务码写响应。
type BizError struct {
	Code int32
	Err  error // 底层原因，可为 nil
}

func (e *BizError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("biz error %d: %s: %v", e.Code, consts.GetMessage(e.Code), e.Err)
	}
	return fmt.Sprintf("biz error %d: %s", e.Code, consts.GetMessage(e.Code))
}

func (e *BizError) Unwrap() error {
	return e.Err
}

// New 创建业务错误
func New(code int32) error {
	return &BizError{Code: code}
}

// Wrap 创建带底层原因的业务错误
func Wrap(code int32, err error) error {
	return &BizError{Code: code, Err: err}
}

// ExtractErrorCode 提取业务错误码。
// 非业务错误统一归为服务器内部错误。
func ExtractErrorCode(err error) int32 {
	if err == nil {
		return consts.CodeSuccess
	}
	var biz *BizError
	if errors.As(err, &biz) {
		return biz.Code
	}
	return consts.CodeInternalError
}
