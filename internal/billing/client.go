package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/logger"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/pkg/apperror"
)

// GatewayName имя платёжного шлюза, записывается в Payment.payment_gateway.
const GatewayName = "billplz"

// Состояния счёта на стороне шлюза.
const (
	BillStatePaid    = "paid"
	BillStateDue     = "due"
	BillStateDeleted = "deleted"
)

// Client обращается к платёжному шлюзу: выставляет счета и проверяет их состояние.
// Шлюз ненадёжен: все вызовы ограничены таймаутом, ошибка транспорта
// считается повторяемой и никогда не трактуется как "платёж не прошёл".
type Client struct {
	baseURL      string
	apiKey       string
	collectionID string
	signingKey   string
	httpClient   *http.Client
}

// NewClient создаёт клиента шлюза.
func NewClient(baseURL, apiKey, collectionID, signingKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		collectionID: collectionID,
		signingKey:   signingKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Bill представляет счёт на стороне шлюза.
type Bill struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	State  string `json:"state"`
	Paid   bool   `json:"paid"`
	Amount int64  `json:"amount"`
}

// CreateBillInput параметры выставления счёта. Amount — в минимальных
// единицах валюты (сены/копейки).
type CreateBillInput struct {
	Amount      int64  `json:"amount"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CallbackURL string `json:"callback_url"`
	RedirectURL string `json:"redirect_url"`
}

// CreateBill выставляет счёт и возвращает его идентификатор и URL оплаты.
func (c *Client) CreateBill(ctx context.Context, in CreateBillInput) (*Bill, error) {
	payload := map[string]interface{}{
		"collection_id": c.collectionID,
		"amount":        in.Amount,
		"email":         in.Email,
		"name":          in.Name,
		"description":   in.Description,
		"callback_url":  in.CallbackURL,
		"redirect_url":  in.RedirectURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("billing: marshal create bill: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bills", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("billing: create bill request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternalService, "платёжный шлюз недоступен")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperror.Wrap(
			fmt.Errorf("billing: unexpected status %d: %s", resp.StatusCode, string(raw)),
			apperror.ErrCodeExternalService, "платёжный шлюз отклонил запрос")
	}

	var bill Bill
	if err := json.NewDecoder(resp.Body).Decode(&bill); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternalService, "некорректный ответ платёжного шлюза")
	}
	if bill.ID == "" || bill.URL == "" {
		return nil, apperror.New(apperror.ErrCodeExternalService, "платёжный шлюз вернул неполный счёт")
	}

	return &bill, nil
}

// GetBill запрашивает текущее состояние счёта.
func (c *Client) GetBill(ctx context.Context, billID string) (*Bill, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/bills/"+billID, nil)
	if err != nil {
		return nil, fmt.Errorf("billing: get bill request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternalService, "платёжный шлюз недоступен")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperror.New(apperror.ErrCodeNotFound, "счёт не найден в платёжном шлюзе")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperror.Wrap(
			fmt.Errorf("billing: unexpected status %d", resp.StatusCode),
			apperror.ErrCodeExternalService, "платёжный шлюз отклонил запрос")
	}

	var bill Bill
	if err := json.NewDecoder(resp.Body).Decode(&bill); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternalService, "некорректный ответ платёжного шлюза")
	}

	return &bill, nil
}

// WebhookPayload поля webhook уведомления шлюза об оплате счёта.
type WebhookPayload struct {
	ID         string `json:"id" form:"id"`
	Amount     string `json:"amount" form:"amount"`
	State      string `json:"state" form:"state"`
	Paid       string `json:"paid" form:"paid"`
	PaidAt     string `json:"paid_at" form:"paid_at"`
	XSignature string `json:"x_signature" form:"x_signature"`
}

// VerifySignature проверяет HMAC-SHA256 подпись webhook.
// Источник подписи — пары "имя поля + значение", отсортированные по имени
// и соединённые через "|"; поле x_signature в источник не входит.
// Если ключ подписи не задан, возвращает false с предупреждением в логе —
// без ключа webhook доверять нельзя, но падать из-за незаполненного
// окружения тоже не нужно.
func (c *Client) VerifySignature(p WebhookPayload) bool {
	if c.signingKey == "" {
		if logger.Log != nil {
			logger.Log.Warn("billing: ключ подписи webhook не задан, подпись отклонена")
		}
		return false
	}
	if p.XSignature == "" {
		return false
	}

	expected := computeSignature(c.signingKey, map[string]string{
		"amount":  p.Amount,
		"id":      p.ID,
		"paid":    p.Paid,
		"paid_at": p.PaidAt,
		"state":   p.State,
	})

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(p.XSignature)))
}

// computeSignature считает подпись над каноническим порядком полей.
func computeSignature(key string, fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+fields[name])
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign подписывает payload так же, как это делает шлюз. Используется в тестах
// и для локальной эмуляции webhook.
func (c *Client) Sign(p WebhookPayload) string {
	return computeSignature(c.signingKey, map[string]string{
		"amount":  p.Amount,
		"id":      p.ID,
		"paid":    p.Paid,
		"paid_at": p.PaidAt,
		"state":   p.State,
	})
}
