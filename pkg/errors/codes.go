package errors

import (
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeStorageError       ErrorCode = "COMMON_015"
	ErrCodeMessagingError     ErrorCode = "COMMON_016"
)

// Aliases used at call sites that predate the module-prefixed codes.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Reference Resolution Error Codes
const (
	ErrCodeUnknownReference   ErrorCode = "REF_001"
	ErrCodeUnknownEntityType  ErrorCode = "REF_002"
	ErrCodeDuplicateReference ErrorCode = "REF_003"
)

// Source Document Error Codes
const (
	ErrCodeEmptyRequiredField ErrorCode = "AOP_001"
	ErrCodeMalformedDocument  ErrorCode = "AOP_002"
)

// Gene Lexicon Error Codes
const (
	ErrCodeMalformedLexiconRow  ErrorCode = "LEX_001"
	ErrCodeLexiconUnreadable    ErrorCode = "LEX_002"
	ErrCodeExceptionTableBroken ErrorCode = "LEX_003"
)

// Identifier Mapping Error Codes
const (
	ErrCodeResolutionSoftFailure ErrorCode = "XREF_001"
	ErrCodeMappingUnavailable    ErrorCode = "XREF_002"
	ErrCodeMappingParseError     ErrorCode = "XREF_003"
	ErrCodeUnknownMappingKind    ErrorCode = "XREF_004"
)

// Export Error Codes
const (
	ErrCodeExportFailed   ErrorCode = "EXP_001"
	ErrCodeGraphSinkWrite ErrorCode = "EXP_002"
)

// Conversion Run Error Codes
const (
	ErrCodeRunFailed        ErrorCode = "RUN_001"
	ErrCodeRunLedgerFailure ErrorCode = "RUN_002"
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessagingError:     "messaging error",

	ErrCodeUnknownReference:   "unknown reference",
	ErrCodeUnknownEntityType:  "unknown entity type",
	ErrCodeDuplicateReference: "duplicate reference table entry",

	ErrCodeEmptyRequiredField: "required field is empty",
	ErrCodeMalformedDocument:  "malformed source document",

	ErrCodeMalformedLexiconRow:  "malformed lexicon row",
	ErrCodeLexiconUnreadable:    "gene lexicon unreadable",
	ErrCodeExceptionTableBroken: "invalid false-positive exception table",

	ErrCodeResolutionSoftFailure: "identifier resolution failed",
	ErrCodeMappingUnavailable:    "identifier mapping service unavailable",
	ErrCodeMappingParseError:     "failed to parse identifier mapping response",
	ErrCodeUnknownMappingKind:    "unknown identifier mapping kind",

	ErrCodeExportFailed:   "graph export failed",
	ErrCodeGraphSinkWrite: "graph sink write failed",

	ErrCodeRunFailed:        "conversion run failed",
	ErrCodeRunLedgerFailure: "run ledger failure",
}

// softCodes lists the codes that degrade a run instead of aborting it.
var softCodes = map[ErrorCode]bool{
	ErrCodeResolutionSoftFailure: true,
	ErrCodeMappingUnavailable:    true,
	ErrCodeMalformedLexiconRow:   true,
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsSoft reports whether errors carrying code are recorded and skipped
// rather than aborting a conversion run.
func IsSoft(code ErrorCode) bool {
	return softCodes[code]
}

// ExitCodeForCode maps an ErrorCode to a process exit status for the CLI.
// Structural data errors exit with 2, everything else with 1.
func ExitCodeForCode(code ErrorCode) int {
	switch ModuleForCode(code) {
	case "REF", "AOP", "LEX":
		return 2
	}
	return 1
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
