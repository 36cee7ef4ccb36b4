package service

import (
	"context"
	"strings"

	json "github.com/goccy/go-json"

	"mrchooks/backend/internal/domain"
)

func (s *Service) ListSettings(ctx context.Context) (map[string]any, error) {
	raw, err := s.repo.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		out[key] = decodeSetting(value)
	}
	return out, nil
}

func (s *Service) GetSetting(ctx context.Context, key string) (domain.Setting, error) {
	value, updatedAt, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		return domain.Setting{}, err
	}
	return domain.Setting{Key: key, Value: decodeSetting(value), UpdatedAt: updatedAt}, nil
}

// PutSetting stores strings verbatim and any other JSON value encoded.
func (s *Service) PutSetting(ctx context.Context, key string, req domain.SettingUpdateRequest) (domain.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Setting{}, invalid("setting key is required")
	}
	if req.Value == nil {
		return domain.Setting{}, invalid("value is required")
	}

	var encoded string
	switch v := req.Value.(type) {
	case string:
		encoded = v
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			return domain.Setting{}, invalid("setting value is not encodable")
		}
		encoded = string(payload)
	}

	at := s.now().UTC()
	if err := s.repo.PutSetting(ctx, key, encoded, at); err != nil {
		return domain.Setting{}, err
	}
	s.logAudit(ctx, "setting_update", "setting", key, "")
	return domain.Setting{Key: key, Value: decodeSetting(encoded), UpdatedAt: at}, nil
}

// decodeSetting returns the parsed JSON value, or the raw text when it is
// not JSON.
func decodeSetting(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
