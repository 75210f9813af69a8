package contract

import (
	"errors"
	"fmt"

	"github.com/poolfund/common"
)

// Code 机器可读的错误码
type Code string

const (
	CodeAlreadyInitialized     Code = "ALREADY_INITIALIZED"
	CodeNotInitialized         Code = "NOT_INITIALIZED"
	CodeNotAuthorized          Code = "NOT_AUTHORIZED"
	CodeDuplicateDeposit       Code = "DUPLICATE_DEPOSIT"
	CodeUnknownParticipant     Code = "UNKNOWN_PARTICIPANT"
	CodeNoEligibleParticipants Code = "NO_ELIGIBLE_PARTICIPANTS"
	CodeArithmeticOverflow     Code = "ARITHMETIC_OVERFLOW"
	CodeLedgerOperationFailed  Code = "LEDGER_OPERATION_FAILED"
	CodeInvalidAmount          Code = "INVALID_AMOUNT"
	CodeAlreadySettled         Code = "ALREADY_SETTLED"
	CodeStorageFailure         Code = "STORAGE_FAILURE"
)

// Error 合约调用失败的原因。errors.Is 按错误码匹配
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrAlreadyInitialized     = &Error{Code: CodeAlreadyInitialized, Message: "already initialized"}
	ErrNotInitialized         = &Error{Code: CodeNotInitialized, Message: "not initialized"}
	ErrNotAuthorized          = &Error{Code: CodeNotAuthorized, Message: "not authorized by admin"}
	ErrDuplicateDeposit       = &Error{Code: CodeDuplicateDeposit, Message: "deposit already set for participant"}
	ErrUnknownParticipant     = &Error{Code: CodeUnknownParticipant, Message: "deposit missing for participant"}
	ErrNoEligibleParticipants = &Error{Code: CodeNoEligibleParticipants, Message: "no attendees"}
	ErrArithmeticOverflow     = &Error{Code: CodeArithmeticOverflow, Message: "arithmetic overflow"}
	ErrLedgerOperationFailed  = &Error{Code: CodeLedgerOperationFailed, Message: "ledger operation failed"}
	ErrInvalidAmount          = &Error{Code: CodeInvalidAmount, Message: "amount must be positive"}
	ErrAlreadySettled         = &Error{Code: CodeAlreadySettled, Message: "pool already settled"}
	ErrStorageFailure         = &Error{Code: CodeStorageFailure, Message: "storage failure"}
)

// CodeOf 取出错误码，非合约错误返回空
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func ledgerFailed(op string, err error) error {
	return &Error{Code: CodeLedgerOperationFailed, Message: op, Err: err}
}

func storageFailed(key common.DataKey, err error) error {
	return &Error{Code: CodeStorageFailure, Message: "slot " + key.String(), Err: err}
}
