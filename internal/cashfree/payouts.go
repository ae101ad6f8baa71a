package cashfree

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const tokenSafetyMargin = time.Minute

type Beneficiary struct {
	ID          string `json:"beneId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	BankAccount string `json:"bankAccount"`
	IFSC        string `json:"ifsc"`
	Address     string `json:"address1"`
}

type TransferRequest struct {
	TransferID    string
	BeneficiaryID string
	Amount        decimal.Decimal
	Remarks       string
}

type Transfer struct {
	TransferID  string `json:"transferId"`
	ReferenceID string `json:"referenceId"`
	Status      string `json:"status"`
	UTR         string `json:"utr"`
}

// envelope is the payouts API wrapper; failures arrive with HTTP 200 and status ERROR.
type envelope struct {
	Status  string          `json:"status"`
	SubCode string          `json:"subCode"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) err() error {
	if e.Status == "SUCCESS" || e.Status == "PENDING" {
		return nil
	}
	code, convErr := strconv.Atoi(e.SubCode)
	if convErr != nil {
		code = http.StatusBadGateway
	}
	return &APIError{StatusCode: code, Message: e.Message}
}

func (c *Client) authorize(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.payoutToken != "" && time.Now().Add(tokenSafetyMargin).Before(c.tokenExpiry) {
		return c.payoutToken, nil
	}

	var env envelope
	headers := map[string]string{
		"X-Client-Id":     c.cfg.PayoutClientID,
		"X-Client-Secret": c.cfg.PayoutClientSecret,
	}
	if err := c.do(ctx, http.MethodPost, c.cfg.PayoutBaseURL+"/payout/v1/authorize", headers, nil, &env); err != nil {
		return "", err
	}
	if err := env.err(); err != nil {
		return "", err
	}

	var data struct {
		Token  string `json:"token"`
		Expiry int64  `json:"expiry"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", &APIError{StatusCode: http.StatusBadGateway, Message: "malformed authorize response"}
	}

	c.payoutToken = data.Token
	c.tokenExpiry = time.Unix(data.Expiry, 0)
	return c.payoutToken, nil
}

func (c *Client) payout(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	token, err := c.authorize(ctx)
	if err != nil {
		return nil, err
	}

	var env envelope
	headers := map[string]string{"Authorization": "Bearer " + token}
	if err := c.do(ctx, method, c.cfg.PayoutBaseURL+path, headers, body, &env); err != nil {
		return nil, err
	}
	if err := env.err(); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// AddBeneficiary registers a bank account. An already registered beneficiary is not an error.
func (c *Client) AddBeneficiary(ctx context.Context, b Beneficiary) error {
	_, err := c.payout(ctx, http.MethodPost, "/payout/v1/addBeneficiary", b)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		c.logger.Debugf("Beneficiary %s already registered", b.ID)
		return nil
	}
	return err
}

func (c *Client) RequestTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	body := map[string]any{
		"beneId":       req.BeneficiaryID,
		"amount":       req.Amount.StringFixed(2),
		"transferId":   req.TransferID,
		"transferMode": "banktransfer",
		"remarks":      req.Remarks,
	}
	data, err := c.payout(ctx, http.MethodPost, "/payout/v1/requestTransfer", body)
	if err != nil {
		return nil, err
	}

	transfer := Transfer{TransferID: req.TransferID, Status: "PENDING"}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &transfer)
	}
	if transfer.TransferID == "" {
		transfer.TransferID = req.TransferID
	}
	if transfer.Status == "" {
		transfer.Status = "PENDING"
	}
	c.logger.Infof("Cashfree transfer %s requested (%s)", transfer.TransferID, transfer.Status)
	return &transfer, nil
}

func (c *Client) GetTransferStatus(ctx context.Context, transferID string) (*Transfer, error) {
	data, err := c.payout(ctx, http.MethodGet, "/payout/v1/getTransferStatus?transferId="+url.QueryEscape(transferID), nil)
	if err != nil {
		return nil, err
	}

	var body struct {
		Transfer Transfer `json:"transfer"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, &APIError{StatusCode: http.StatusBadGateway, Message: "malformed transfer status response"}
	}
	if body.Transfer.TransferID == "" {
		body.Transfer.TransferID = transferID
	}
	return &body.Transfer, nil
}
