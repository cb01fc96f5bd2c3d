package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	config "github.com/courtsidehq/padel_community/configs"
)

// Telr hosted-payment-page API. All amounts are AED.

type GatewayOrder struct {
	OrderRef string `json:"order_ref"`
	PayURL   string `json:"pay_url"`
	Status   string `json:"status"`
	TxnRef   string `json:"txn_ref,omitempty"`
}

type telrOrderResponse struct {
	Order struct {
		Ref    string `json:"ref"`
		URL    string `json:"url"`
		Status struct {
			Text string `json:"text"`
		} `json:"status"`
		Transaction struct {
			Ref string `json:"ref"`
		} `json:"transaction"`
	} `json:"order"`
	Error struct {
		Message string `json:"message"`
		Note    string `json:"note"`
	} `json:"error"`
}

func telrRequest(payload map[string]interface{}) (*telrOrderResponse, error) {
	apiBase := config.Config("TELR_API_BASE_URL")
	payload["ivp_store"] = config.Config("TELR_STORE_ID")
	payload["ivp_authkey"] = config.Config("TELR_AUTH_KEY")

	body, _ := json.Marshal(payload)

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/gateway/order.json", apiBase), bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway request failed: %s", string(respBody))
	}

	var telrResp telrOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&telrResp); err != nil {
		return nil, err
	}
	if telrResp.Error.Message != "" {
		return nil, fmt.Errorf("gateway error: %s (%s)", telrResp.Error.Message, telrResp.Error.Note)
	}
	return &telrResp, nil
}

// CreateGatewayOrder opens a hosted payment page for the given amount and
// returns the order reference the webhook will later confirm.
func CreateGatewayOrder(amount float64, currency, cartID, description string) (*GatewayOrder, error) {
	telrResp, err := telrRequest(map[string]interface{}{
		"ivp_method":   "create",
		"ivp_amount":   fmt.Sprintf("%.2f", amount),
		"ivp_currency": currency,
		"ivp_cart":     cartID,
		"ivp_desc":     description,
		"return_auth":  config.Config("TELR_RETURN_URL"),
		"return_can":   config.Config("TELR_CANCEL_URL"),
		"return_decl":  config.Config("TELR_DECLINE_URL"),
	})
	if err != nil {
		return nil, err
	}

	return &GatewayOrder{
		OrderRef: telrResp.Order.Ref,
		PayURL:   telrResp.Order.URL,
		Status:   "pending",
	}, nil
}

// CheckGatewayOrder fetches the authoritative status of an order.
func CheckGatewayOrder(orderRef string) (*GatewayOrder, error) {
	telrResp, err := telrRequest(map[string]interface{}{
		"ivp_method": "check",
		"order_ref":  orderRef,
	})
	if err != nil {
		return nil, err
	}

	return &GatewayOrder{
		OrderRef: telrResp.Order.Ref,
		Status:   telrResp.Order.Status.Text,
		TxnRef:   telrResp.Order.Transaction.Ref,
	}, nil
}

// RefundGatewayPayment issues a refund against a captured transaction.
func RefundGatewayPayment(txnRef string, amount float64) error {
	_, err := telrRequest(map[string]interface{}{
		"ivp_method":   "refund",
		"ivp_amount":   fmt.Sprintf("%.2f", amount),
		"ivp_currency": "AED",
		"tran_ref":     txnRef,
	})
	return err
}
