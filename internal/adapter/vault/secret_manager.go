package vault

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

// SecretManager reads deployment secrets from Vault's KV v2 engine. It is
// optional; env vars win when Vault is disabled.
type SecretManager struct {
	client *api.Client
	mount  string
}

func NewSecretManager(address, token, mount string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)
	if mount == "" {
		mount = "secret"
	}

	return &SecretManager{client: client, mount: mount}, nil
}

func (sm *SecretManager) read(path, key string) (string, error) {
	secret, err := sm.client.Logical().Read(fmt.Sprintf("%s/data/%s", sm.mount, path))
	if err != nil {
		return "", fmt.Errorf("vault: read %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault: secret %s not found", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("vault: secret %s has no data block", path)
	}
	value, ok := data[key].(string)
	if !ok {
		return "", fmt.Errorf("vault: secret %s missing key %s", path, key)
	}
	return value, nil
}

func (sm *SecretManager) GetDatabaseURL() (string, error) {
	return sm.read("database", "url")
}

func (sm *SecretManager) GetJWTSecret() (string, error) {
	return sm.read("jwt", "secret")
}

func (sm *SecretManager) GetStripeKey() (string, error) {
	return sm.read("stripe", "secret_key")
}

func (sm *SecretManager) GetTwilioToken() (string, error) {
	return sm.read("twilio", "auth_token")
}
