package authentication

// keystring.go keeps the session credentials in the OS keyring, one JSON
// blob per keyring service.
import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/zalando/go-keyring"

	"onlibry/internal/session"
)

const tokenKey = "auth_tokens"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// KeyringStore implements session.Store on top of the OS keyring.
type KeyringStore struct {
	service string
}

var _ session.Store = (*KeyringStore)(nil)

func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

func (k *KeyringStore) Save(creds *session.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return keyring.Set(k.service, tokenKey, string(data))
}

func (k *KeyringStore) Load() (*session.Credentials, error) {
	value, err := keyring.Get(k.service, tokenKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, session.ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("read keyring: %w", err)
	}

	var creds session.Credentials
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		return nil, fmt.Errorf("decode stored credentials: %w", err)
	}
	return &creds, nil
}

func (k *KeyringStore) Clear() error {
	err := keyring.Delete(k.service, tokenKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
