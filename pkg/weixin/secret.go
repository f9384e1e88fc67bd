package weixin

// SecretHolder resolves the secret paired with an application id.
// An empty secret with a nil error means the application id is unknown.
type SecretHolder interface {
	Secret(appID string) (string, error)
}

// SecretHolderFunc adapts a plain function to SecretHolder.
type SecretHolderFunc func(appID string) (string, error)

// Secret calls f(appID).
func (f SecretHolderFunc) Secret(appID string) (string, error) { return f(appID) }
