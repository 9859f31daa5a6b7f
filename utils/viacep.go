package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dentio/brushtrack/config"
)

// Errors returned by the postal code lookup.
var (
	ErrInvalidCep  = errors.New("invalid cep format")
	ErrCepNotFound = errors.New("cep not found")
)

// Address is the subset of the ViaCEP payload the application stores.
type Address struct {
	Cep      string `json:"cep"`
	Street   string `json:"logradouro"`
	District string `json:"bairro"`
	City     string `json:"localidade"`
	State    string `json:"uf"`
	Missing  bool   `json:"erro"`
}

// CepClient resolves Brazilian postal codes via the ViaCEP HTTP API with
// in-memory and Redis caching. Addresses change rarely; cache hard for a day.
type CepClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	cache map[string]cepCacheEntry
}

type cepCacheEntry struct {
	addr      Address
	expiresAt time.Time
}

const cepCacheTTL = 24 * time.Hour

var (
	defaultCepClient *CepClient
	cepClientOnce    sync.Once
)

// NewCepClient creates a lookup client against the given base URL
// (e.g. "https://viacep.com.br").
func NewCepClient(baseURL string) *CepClient {
	return &CepClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 3 * time.Second},
		cache:   map[string]cepCacheEntry{},
	}
}

// LookupCep resolves a postal code through the default client configured via
// VIACEP_BASE_URL.
func LookupCep(ctx context.Context, cep string) (*Address, error) {
	cepClientOnce.Do(func() {
		defaultCepClient = NewCepClient(config.Get().ViaCepBaseURL)
	})
	return defaultCepClient.Lookup(ctx, cep)
}

// Lookup resolves a postal code to an address. The code must contain exactly
// eight digits; separators are stripped before validation.
func (c *CepClient) Lookup(ctx context.Context, cep string) (*Address, error) {
	normalized := normalizeCep(cep)
	if normalized == "" {
		return nil, ErrInvalidCep
	}

	if addr, ok := c.cacheGet(normalized); ok {
		return addr, nil
	}
	if addr, ok := c.redisGet(ctx, normalized); ok {
		c.cacheSet(normalized, *addr)
		return addr, nil
	}

	url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, normalized)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusBadRequest {
		return nil, ErrInvalidCep
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("viacep status %d", resp.StatusCode)
	}

	var addr Address
	if err := json.NewDecoder(resp.Body).Decode(&addr); err != nil {
		return nil, err
	}
	if addr.Missing || addr.Cep == "" {
		return nil, ErrCepNotFound
	}

	c.cacheSet(normalized, addr)
	c.redisSet(ctx, normalized, addr)
	return &addr, nil
}

// normalizeCep strips separators and returns the bare 8-digit code, or ""
// when the input is not a valid CEP.
func normalizeCep(cep string) string {
	var digits strings.Builder
	for _, r := range strings.TrimSpace(cep) {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '-' || r == '.' || r == ' ':
			// separator, skip
		default:
			return ""
		}
	}
	if digits.Len() != 8 {
		return ""
	}
	return digits.String()
}

func (c *CepClient) cacheGet(cep string) (*Address, bool) {
	c.mu.RLock()
	e, ok := c.cache[cep]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.cache, cep)
		c.mu.Unlock()
		return nil, false
	}
	addr := e.addr
	return &addr, true
}

func (c *CepClient) cacheSet(cep string, addr Address) {
	c.mu.Lock()
	c.cache[cep] = cepCacheEntry{addr: addr, expiresAt: time.Now().Add(cepCacheTTL)}
	c.mu.Unlock()
}

func cepRedisKey(cep string) string { return "viacep:" + cep }

func (c *CepClient) redisGet(ctx context.Context, cep string) (*Address, bool) {
	rc := GetRedis()
	if rc == nil {
		return nil, false
	}
	ctx2, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	b, err := rc.Get(ctx2, cepRedisKey(cep)).Bytes()
	if err != nil {
		return nil, false
	}
	var addr Address
	if err := json.Unmarshal(b, &addr); err != nil {
		return nil, false
	}
	return &addr, true
}

func (c *CepClient) redisSet(ctx context.Context, cep string, addr Address) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	b, err := json.Marshal(addr)
	if err != nil {
		return
	}
	ctx2, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_ = rc.Set(ctx2, cepRedisKey(cep), b, cepCacheTTL).Err()
}
