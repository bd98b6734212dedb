package dto

import "github.com/shopspring/decimal"

// PaymentConfirmation is the gateway-agnostic shape of an inbound payment
// callback (contribution or loan repayment). Handlers parse the wire format
// into this before reconciliation.
type PaymentConfirmation struct {
	Reference string          // Gateway receipt number, idempotency key
	Phone     string          // Payer identity
	Amount    decimal.Decimal // Positive amount received
}

// DisbursementResult is the gateway-agnostic shape of an outbound payment
// result callback.
type DisbursementResult struct {
	OriginatorReference string // Reference issued at dispatch time
	ResultCode          int    // 0 means success
	ResultDescription   string
}

// StkCallbackEnvelope mirrors the Daraja STK push callback body.
type StkCallbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []StkCallbackItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// StkCallbackItem is one name/value pair of the STK callback metadata.
type StkCallbackItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// B2CResultEnvelope mirrors the Daraja B2C result callback body.
type B2CResultEnvelope struct {
	Result struct {
		ResultCode               int    `json:"ResultCode"`
		ResultDesc               string `json:"ResultDesc"`
		OriginatorConversationID string `json:"OriginatorConversationID"`
		ConversationID           string `json:"ConversationID"`
		TransactionID            string `json:"TransactionID"`
	} `json:"Result"`
}
