package connectors

import "fmt"

// BinanceErrorCodes maps the exchange's numeric error codes to their
// documented names.
var BinanceErrorCodes = map[int]string{
	-1000: "UNKNOWN",                     // Unknown error while processing the request
	-1001: "DISCONNECTED",                // Internal error, unable to process
	-1002: "UNAUTHORIZED",                // Not authorized to execute the request
	-1003: "TOO_MANY_REQUESTS",           // Request rate limit exceeded
	-1006: "UNEXPECTED_RESP",             // Unexpected response from message bus, status unknown
	-1007: "TIMEOUT",                     // Timeout waiting for backend, status unknown
	-1013: "INVALID_MESSAGE",             // Filter failure (lot size, price filter, notional)
	-1015: "TOO_MANY_ORDERS",             // Too many new orders
	-1021: "INVALID_TIMESTAMP",           // Timestamp outside the recvWindow
	-1022: "INVALID_SIGNATURE",           // Signature for this request is not valid
	-1100: "ILLEGAL_CHARS",               // Illegal characters in a parameter
	-1111: "BAD_PRECISION",               // Precision over the maximum for this asset
	-1121: "BAD_SYMBOL",                  // Invalid symbol
	-2010: "NEW_ORDER_REJECTED",          // e.g. insufficient balance
	-2011: "CANCEL_REJECTED",             // Unknown order sent
	-2013: "NO_SUCH_ORDER",               // Order does not exist
	-2014: "BAD_API_KEY_FMT",             // API key format invalid
	-2015: "REJECTED_MBX_KEY",            // Invalid API key, IP, or permissions
	-3022: "ACCOUNT_IN_LIQUIDATION",      // Trading disabled, account under liquidation
	-4046: "NO_NEED_TO_CHANGE_MARGIN",    // Margin type already set
	-5021: "ORDER_CANCELLED_PARTIALLY",   // FOK order partially cancelled
	-5022: "ORDER_REJECTED_REDUCE_ONLY",  // Reduce-only rejected, no position
	-9000: "RESERVED_INTERNAL_TRANSFERS", // Internal transfer errors block
}

// GetErrorMsg returns the documented name for a Binance error code.
// If the code is unknown, returns a generic message including the code.
func GetErrorMsg(code int) string {
	if msg, ok := BinanceErrorCodes[code]; ok {
		return msg
	}
	return fmt.Sprintf("UNKNOWN_BINANCE_ERROR_%d", code)
}
