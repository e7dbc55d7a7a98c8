package paystack

import "context"

type ClientInterface interface {
	Initialize(ctx context.Context, req *InitializeRequest) (*InitializeData, error)
	Verify(ctx context.Context, reference string) (*VerifyData, error)
	VerifySignature(payload []byte, signature string) bool
}

var _ ClientInterface = (*Client)(nil)
