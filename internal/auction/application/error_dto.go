package application

import (
	"errors"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
)

// ErrorDTO is the error body shared by the HTTP and WS transports
type ErrorDTO struct {
	Error      string  `json:"error"`
	Reason     string  `json:"reason"`
	MinimumBid *string `json:"minimum_bid,omitempty"`
}

// NewErrorDTO builds the client facing error. Internal failures are not
// described to the client.
func NewErrorDTO(err error) ErrorDTO {
	dto := ErrorDTO{Reason: domain.Reason(err)}
	if dto.Reason == domain.ReasonInternal {
		dto.Error = "internal error"
		return dto
	}
	dto.Error = rootCause(err).Error()

	var low *domain.BidTooLowError
	if errors.As(err, &low) {
		s := low.Minimum.String()
		dto.MinimumBid = &s
		dto.Error = low.Error()
	}
	return dto
}

// rootCause strips the use case wrapping so clients see the domain message
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
