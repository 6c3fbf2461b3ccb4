// Package sideshift implements the partner adapter for the SideShift affiliate API.
package sideshift

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/partner-reports/internal/api"
	"github.com/rickgao/partner-reports/internal/auth"
	"github.com/rickgao/partner-reports/internal/model"
	"github.com/rickgao/partner-reports/internal/partner"
)

// PartnerID is the identifier bindings use for this adapter.
const PartnerID = "sideshift"

// Credential keys read from a binding.
const (
	CredSecret      = "sideshiftSecret"
	CredAffiliateID = "sideshiftAffiliateId"
)

const ordersPath = "/affiliate/completedOrders"

// Config configures the adapter.
type Config struct {
	PageLimit   int           // Orders requested per page
	Lookback    time.Duration // How far behind the cursor to re-read
	MaxPages    int           // Stop after this many pages, 0 for no limit
	AffiliateID string        // Used when the binding carries none
}

// DefaultConfig returns the standard paging settings.
func DefaultConfig() Config {
	return Config{
		PageLimit: 500,
		Lookback:  5 * 24 * time.Hour,
	}
}

// Adapter fetches completed SideShift orders.
type Adapter struct {
	cfg    Config
	client *api.Client
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Adapter that talks to the API through client.
func New(cfg Config, client *api.Client, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = DefaultConfig().PageLimit
	}
	return &Adapter{
		cfg:    cfg,
		client: client,
		logger: logger.With("partner_id", PartnerID),
		now:    time.Now,
	}
}

// ID implements partner.Adapter.
func (a *Adapter) ID() string { return PartnerID }

type ordersResponse struct {
	Orders []json.RawMessage `json:"orders"`
}

type order struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	DepositAddress address `json:"depositAddress"`
	DepositAsset   string  `json:"depositAsset"`
	InvoiceAmount  any     `json:"invoiceAmount"`
	SettleAddress  address `json:"settleAddress"`
	SettleAsset    string  `json:"settleAsset"`
	SettleAmount   any     `json:"settleAmount"`
	CreatedAt      string  `json:"createdAt"`
}

type address struct {
	Address string `json:"address"`
}

// Fetch implements partner.Adapter.
//
// Pages are read newest first. Paging stops at a short page or once a
// completed order falls more than the lookback behind the prior cursor.
// When MaxPages cuts paging short, the cursor keeps its old LatestTimestamp
// and records the offset to resume from, so the backlog is drained over the
// following cycles before the cursor moves forward.
func (a *Adapter) Fetch(ctx context.Context, prior model.CursorState, creds model.Credentials) (partner.FetchResult, error) {
	cur := partner.DecodeTimestampCursor(prior)

	secret := creds[CredSecret]
	if secret == "" {
		a.logger.Debug("no signing secret, skipping")
		return partner.FetchResult{State: cur.State()}, nil
	}
	signer, err := auth.NewHMACSigner(secret)
	if err != nil {
		return partner.FetchResult{}, err
	}

	affiliateID := creds[CredAffiliateID]
	if affiliateID == "" {
		affiliateID = a.cfg.AffiliateID
	}

	nonce, signature := signer.SignNonce(a.now())
	stopBefore := partner.LookbackStart(cur.LatestTimestamp, a.cfg.Lookback)
	newest := partner.TimestampCursor{LatestTimestamp: cur.Pending}
	offset := cur.Offset
	if cur.Resuming() {
		a.logger.Info("resuming backlog", "offset", offset)
	}

	var txs []model.StandardTransaction
	drained := false
	for page := 0; a.cfg.MaxPages == 0 || page < a.cfg.MaxPages; page++ {
		query := url.Values{
			"limit":       {strconv.Itoa(a.cfg.PageLimit)},
			"offset":      {strconv.FormatInt(offset, 10)},
			"affiliateId": {affiliateID},
			"time":        {nonce},
			"signature":   {signature},
		}

		var resp ordersResponse
		if err := a.client.Get(ctx, ordersPath, query, &resp); err != nil {
			return partner.FetchResult{}, fmt.Errorf("query sideshift offset %d: %w", offset, err)
		}
		offset += int64(a.cfg.PageLimit)

		done := false
		for _, raw := range resp.Orders {
			status, err := decodeStatus(raw)
			if err != nil {
				return partner.FetchResult{}, err
			}
			if !partner.IsTerminal(status) {
				continue
			}

			o, err := decodeOrder(raw)
			if err != nil {
				return partner.FetchResult{}, err
			}
			tx, err := o.standardize(raw)
			if err != nil {
				return partner.FetchResult{}, err
			}
			txs = append(txs, tx)
			newest.Observe(tx.Timestamp)
			if tx.Timestamp < stopBefore {
				done = true
			}
		}

		a.logger.Debug("fetched page", "page", page, "orders", len(resp.Orders), "kept", len(txs))
		if done || len(resp.Orders) < a.cfg.PageLimit {
			drained = true
			break
		}
	}

	if !drained {
		a.logger.Info("page limit reached, resuming next cycle", "offset", offset, "max_pages", a.cfg.MaxPages)
		next := partner.TimestampCursor{
			LatestTimestamp: cur.LatestTimestamp,
			Offset:          offset,
			Pending:         newest.LatestTimestamp,
		}
		return partner.FetchResult{Transactions: txs, State: next.State()}, nil
	}

	next := partner.TimestampCursor{LatestTimestamp: cur.LatestTimestamp}
	next.Observe(newest.LatestTimestamp)
	return partner.FetchResult{Transactions: txs, State: next.State()}, nil
}

// decodeStatus reads only the status so orders that are not complete are
// skipped whatever the shape of their other fields.
func decodeStatus(raw json.RawMessage) (string, error) {
	var head struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", fmt.Errorf("decode sideshift order status: %w", err)
	}
	return head.Status, nil
}

func decodeOrder(raw json.RawMessage) (order, error) {
	var o order
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&o); err != nil {
		return order{}, fmt.Errorf("decode sideshift order: %w", err)
	}
	return o, nil
}

func (o order) standardize(raw json.RawMessage) (model.StandardTransaction, error) {
	if o.ID == "" {
		return model.StandardTransaction{}, fmt.Errorf("sideshift order missing id")
	}
	depositAmount, err := partner.ParseAmount(o.InvoiceAmount)
	if err != nil {
		return model.StandardTransaction{}, fmt.Errorf("order %s invoiceAmount: %w", o.ID, err)
	}
	payoutAmount, err := partner.ParseAmount(o.SettleAmount)
	if err != nil {
		return model.StandardTransaction{}, fmt.Errorf("order %s settleAmount: %w", o.ID, err)
	}
	ts, iso, err := partner.ParseTime(o.CreatedAt)
	if err != nil {
		return model.StandardTransaction{}, fmt.Errorf("order %s: %w", o.ID, err)
	}

	return model.StandardTransaction{
		OrderID:         o.ID,
		Status:          partner.StatusComplete,
		DepositAddress:  o.DepositAddress.Address,
		DepositCurrency: strings.ToUpper(o.DepositAsset),
		DepositAmount:   depositAmount,
		PayoutAddress:   o.SettleAddress.Address,
		PayoutCurrency:  strings.ToUpper(o.SettleAsset),
		PayoutAmount:    payoutAmount,
		Timestamp:       ts,
		ISODate:         iso,
		RawTx:           raw,
	}, nil
}
