package rates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fkhayef/splitledger/pkg/currency"
)

// ECBProvider reads the European Central Bank daily reference rates.
// The feed is anchored at EUR, which it does not list, so EUR = 1 is added.
type ECBProvider struct {
	url    string
	client *http.Client
	log    logrus.FieldLogger
}

// NewECBProvider creates a provider for the feed at url
func NewECBProvider(url string, timeout time.Duration, log logrus.FieldLogger) *ECBProvider {
	return &ECBProvider{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Fetch downloads and parses the feed
func (p *ECBProvider) Fetch(ctx context.Context) (Snapshot, error) {
	body, err := p.download(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return parseECB(body)
}

func (p *ECBProvider) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	p.log.WithField("bytes", len(body)).Debug("ECB rates response received")
	return body, nil
}

// parseECB extracts Cube[@currency][@rate] entries.
func parseECB(raw []byte) (Snapshot, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse XML: %w", err)
	}

	snap := Snapshot{
		Base:  currency.EUR,
		Rates: currency.RateTable{currency.EUR: decimal.NewFromInt(1)},
		AsOf:  time.Now().UTC(),
	}

	if day := doc.FindElement("//Cube[@time]"); day != nil {
		if t, err := time.Parse("2006-01-02", day.SelectAttrValue("time", "")); err == nil {
			snap.AsOf = t
		}
	}

	cubes := doc.FindElements("//Cube[@currency]")
	if len(cubes) == 0 {
		return Snapshot{}, fmt.Errorf("no rates found in XML")
	}

	for _, cube := range cubes {
		code := currency.Normalize(cube.SelectAttrValue("currency", ""))
		if !code.Valid() {
			continue
		}
		rate, err := decimal.NewFromString(cube.SelectAttrValue("rate", ""))
		if err != nil || !rate.IsPositive() {
			continue
		}
		snap.Rates[code] = rate
	}

	if len(snap.Rates) == 1 {
		return Snapshot{}, fmt.Errorf("no valid rates found in XML")
	}
	return snap, nil
}
