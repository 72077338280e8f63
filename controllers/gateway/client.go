package gatewayControllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
)

const maxVerificationBody = 64 << 10

// VerificationResult is the gateway's answer about one transaction.
type VerificationResult struct {
	Status  string `json:"status"`
	RefID   string `json:"ref_id"`
	Raw     string `json:"-"`
	Success bool   `json:"-"`
}

// Verifier asks the gateway whether a transaction settled.
type Verifier interface {
	Verify(ctx context.Context, total decimal.Decimal, transactionUUID string) (*VerificationResult, error)
}

// VerificationClient calls the gateway status endpoint over a pooled client.
type VerificationClient struct {
	http        *http.Client
	url         string
	productCode string
}

func NewVerificationClient(url, productCode string, timeout time.Duration) *VerificationClient {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout
	return &VerificationClient{http: client, url: url, productCode: productCode}
}

type verificationRequest struct {
	ProductCode     string  `json:"product_code"`
	TotalAmount     float64 `json:"total_amount"`
	TransactionUUID string  `json:"transaction_uuid"`
}

// Verify posts the transaction to the status endpoint. Transport failures,
// non-200 answers and undecodable bodies wrap ErrVerificationUnreachable.
func (c *VerificationClient) Verify(ctx context.Context, total decimal.Decimal, transactionUUID string) (*VerificationResult, error) {
	payload, err := json.Marshal(verificationRequest{
		ProductCode:     c.productCode,
		TotalAmount:     total.InexactFloat64(),
		TransactionUUID: transactionUUID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrVerificationUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVerificationBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", models.ErrVerificationUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", models.ErrVerificationUnreachable, resp.StatusCode, string(body))
	}

	var result VerificationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", models.ErrVerificationUnreachable, err)
	}
	result.Raw = string(body)
	result.Success = isSettled(result.Status)
	return &result, nil
}

func isSettled(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "complete":
		return true
	default:
		return false
	}
}
