// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	walletAddressRegex = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")
	txHashRegex        = regexp.MustCompile("^0x[0-9a-fA-F]{64}$")
	displayNameRegex   = regexp.MustCompile("^[a-zA-Z0-9_]+$")
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("wallet_address", validateWalletAddress)
	validate.RegisterValidation("tx_hash", validateTxHash)
	validate.RegisterValidation("display_name", validateDisplayName)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateWalletAddress(fl validator.FieldLevel) bool {
	return walletAddressRegex.MatchString(fl.Field().String())
}

func validateTxHash(fl validator.FieldLevel) bool {
	return txHashRegex.MatchString(fl.Field().String())
}

func validateDisplayName(fl validator.FieldLevel) bool {
	name := fl.Field().String()

	// Display names are alphanumeric and underscores, 3-30 characters
	if len(name) < 3 || len(name) > 30 {
		return false
	}
	return displayNameRegex.MatchString(name)
}

// NormalizeWallet lowercases a wallet address so equality checks and
// lookups are case insensitive.
func NormalizeWallet(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "wallet_address":
		return "Must be a 0x-prefixed 40-hex-character address"
	case "tx_hash":
		return "Must be a 0x-prefixed 64-hex-character transaction hash"
	case "display_name":
		return "Display name must be 3-30 characters and contain only letters, numbers, and underscores"
	default:
		return e.Field() + " is invalid"
	}
}
