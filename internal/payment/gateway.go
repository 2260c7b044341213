package payment

import "context"

type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
	VerifySignature(body []byte, signature string) error
}
