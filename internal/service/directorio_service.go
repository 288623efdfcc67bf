package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/dto"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const directorioCacheTTL = 5 * time.Minute

// DirectorioClient consumes the read-only catalog collaborators: the sede
// directory, the warehouse directory, and product lookups. Responses are
// cached in Redis with a short TTL; any cache failure degrades to a direct
// call, never to an error.
type DirectorioClient struct {
	baseURL    string
	httpClient *http.Client
	rdb        *redis.Client // nil disables caching
}

func NewDirectorioClient(baseURL string, timeout time.Duration, rdb *redis.Client) *DirectorioClient {
	return &DirectorioClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		rdb:        rdb,
	}
}

// ListSedes returns every headquarters the caller may route transfers
// between. GET /admin/headquarters, X-Role header per the directory contract.
func (c *DirectorioClient) ListSedes(ctx context.Context, role string) ([]dto.SedeDTO, error) {
	var out []dto.SedeDTO
	err := c.cached(ctx, "cache:directorio:sedes", &out, func() (interface{}, error) {
		var sedes []dto.SedeDTO
		if err := c.get(ctx, "/admin/headquarters", role, &sedes); err != nil {
			return nil, err
		}
		return sedes, nil
	})
	return out, err
}

// ListAlmacenes returns the warehouse directory. GET /logistics/warehouses.
func (c *DirectorioClient) ListAlmacenes(ctx context.Context, role string) (*dto.AlmacenListResponse, error) {
	var out dto.AlmacenListResponse
	err := c.cached(ctx, "cache:directorio:almacenes", &out, func() (interface{}, error) {
		var resp dto.AlmacenListResponse
		if err := c.get(ctx, "/logistics/warehouses", role, &resp); err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProducto looks up one product (name, unit price, availability) for
// rendering transfer lines. GET /admin/products/{id}.
func (c *DirectorioClient) GetProducto(ctx context.Context, id int64, role string) (*dto.ProductoDTO, error) {
	var out dto.ProductoDTO
	key := fmt.Sprintf("cache:directorio:producto:%d", id)
	err := c.cached(ctx, key, &out, func() (interface{}, error) {
		var producto dto.ProductoDTO
		if err := c.get(ctx, fmt.Sprintf("/admin/products/%d", id), role, &producto); err != nil {
			return nil, err
		}
		return producto, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// cached is the read-through path: try Redis, fall back to fetch, then
// write-behind into Redis. Cache errors are logged at debug and ignored.
func (c *DirectorioClient) cached(ctx context.Context, key string, out interface{}, fetch func() (interface{}, error)) error {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			if json.Unmarshal(raw, out) == nil {
				return nil
			}
		} else if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("directorio: cache read failed")
		}
	}

	fresh, err := fetch()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(fresh)
	if err != nil {
		return err
	}
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, encoded, directorioCacheTTL).Err(); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("directorio: cache write failed")
		}
	}
	return json.Unmarshal(encoded, out)
}

func (c *DirectorioClient) get(ctx context.Context, path, role string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("directorio: create request: %w", err)
	}
	req.Header.Set("X-Role", role)
	if token := infra.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("directorio: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("directorio: %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("directorio: decode %s: %w", path, err)
	}
	return nil
}
