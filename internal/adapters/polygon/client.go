package polygon

import (
	"context"
	"net/http"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"chainsight/internal/adapters/config"
	"chainsight/internal/domain/options"
	"chainsight/pkg/errors"
	"chainsight/pkg/logger"
)

// Client fetches option chain snapshots from the Polygon REST API.
// It implements options.Provider; throttling and retries are layered on
// top of it by the snapshot service.
type Client struct {
	client  *polygon.Client
	timeout time.Duration
	log     *logger.Logger
}

// NewClient creates a new Polygon provider
func NewClient(cfg config.ProviderConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "polygon API key is required")
	}

	return &Client{
		client:  polygon.New(cfg.APIKey),
		timeout: cfg.RequestTimeout,
		log:     logger.Get().With("component", "polygon"),
	}, nil
}

// FetchContracts returns the option chain for a ticker limited to the given
// normalized period (YYYY-MM or YYYY-MM-DD), up to limit contracts
func (c *Client) FetchContracts(ctx context.Context, ticker, period string, limit int) ([]options.Contract, error) {
	start, end, err := options.PeriodRange(period)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := models.ListOptionsChainParams{
		UnderlyingAsset: strings.ToUpper(ticker),
	}.WithExpirationDate(models.GTE, models.Date(start)).
		WithExpirationDate(models.LTE, models.Date(end)).
		WithSort("expiration_date").
		WithOrder(models.Asc).
		WithLimit(250) // provider page size, not the caller's limit

	c.log.Debug("Fetching option chain",
		"ticker", ticker,
		"period", period,
		"limit", limit,
	)

	iter := c.client.ListOptionsChainSnapshot(ctx, params)

	contracts := make([]options.Contract, 0, limit)
	for iter.Next() {
		if len(contracts) >= limit {
			break
		}
		item := iter.Item()

		contract, ok := c.toContract(ticker, item)
		if !ok {
			continue
		}
		contracts = append(contracts, contract)
	}
	if err := iter.Err(); err != nil {
		return nil, c.mapError(err, ticker)
	}

	c.log.Debug("Option chain fetched", "ticker", ticker, "contracts", len(contracts))
	return contracts, nil
}

// toContract converts the provider's nested snapshot shape into a typed
// contract; rows without a valid type or positive strike are dropped
func (c *Client) toContract(ticker string, item models.OptionContractSnapshot) (options.Contract, bool) {
	contractType := options.ContractType(strings.ToLower(item.Details.ContractType))
	if !contractType.Valid() || item.Details.StrikePrice <= 0 {
		return options.Contract{}, false
	}

	contract := options.Contract{
		Ticker:        item.Details.Ticker,
		Underlying:    strings.ToUpper(ticker),
		Type:          contractType,
		Strike:        item.Details.StrikePrice,
		Expiration:    time.Time(item.Details.ExpirationDate),
		Volume:        item.Day.Volume,
		ExerciseStyle: item.Details.ExerciseStyle,
	}

	// The chain endpoint reports zero when open interest is unknown;
	// treat that as absent so downstream falls back to volume
	if item.OpenInterest > 0 {
		oi := item.OpenInterest
		contract.OpenInterest = &oi
	}

	return contract, true
}

// mapError translates provider transport failures onto domain sentinels
func (c *Client) mapError(err error, ticker string) error {
	var respErr *models.ErrorResponse
	if errors.As(err, &respErr) {
		switch {
		case respErr.StatusCode == http.StatusTooManyRequests:
			return errors.Wrapf(errors.ErrRateLimited, "polygon: %s", respErr.Message)
		case respErr.StatusCode == http.StatusNotFound:
			return errors.Wrapf(errors.ErrTickerNotFound, "polygon: ticker %s", ticker)
		case respErr.StatusCode >= 500:
			return errors.Wrapf(errors.ErrProviderUnavailable, "polygon: %s", respErr.Message)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(errors.ErrTimeout, "polygon: fetch for %s", ticker)
	}
	return errors.Wrap(err, "polygon: fetch failed")
}
