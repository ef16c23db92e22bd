// Package hmac provides an HMAC-SHA256 keyring proof provider
package hmac

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/micro/go-clock/logger"
	"github.com/micro/go-clock/logical"
	"github.com/micro/go-clock/proof"
	"github.com/pkg/errors"
)

type keysKey struct{}
type currentKey struct{}
type fileKey struct{}

// keyFile is the on disk keyring format. Key material is base64 encoded.
type keyFile struct {
	Current int64             `json:"current"`
	Keys    map[string]string `json:"keys"`
}

// hmacProvider signs with the current keyring key and verifies against
// whichever key the proof names, so peers can lag a rotation behind.
type hmacProvider struct {
	sync.RWMutex
	keys    map[int64][]byte
	current int64

	watcher *fsnotify.Watcher
	path    string
}

func digest(t logical.Time, key []byte) logical.Proof {
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], t.Seconds())
	binary.BigEndian.PutUint32(buf[4:], t.Ordinal())

	mac := hmac.New(sha256.New, key)
	mac.Write(buf[:])
	return mac.Sum(nil)
}

func (h *hmacProvider) Sign(t logical.Time) (logical.SignedTime, error) {
	h.RLock()
	key, ok := h.keys[h.current]
	id := h.current
	h.RUnlock()

	if !ok {
		return logical.SignedTime{}, proof.ErrNoSigningKey
	}

	return logical.SignedTime{
		Time:  t,
		Proof: digest(t, key),
		KeyID: id,
	}, nil
}

func (h *hmacProvider) Verify(st logical.SignedTime) error {
	h.RLock()
	key, ok := h.keys[st.KeyID]
	h.RUnlock()

	if !ok {
		return proof.ErrUnknownKey
	}
	if !hmac.Equal(st.Proof, digest(st.Time, key)) {
		return proof.ErrInvalidProof
	}
	return nil
}

func (h *hmacProvider) String() string {
	return "hmac"
}

// load replaces the keyring from the key file.
func (h *hmacProvider) load() error {
	b, err := os.ReadFile(h.path)
	if err != nil {
		return errors.Wrapf(err, "reading key file %s", h.path)
	}

	var kf keyFile
	if err := json.Unmarshal(b, &kf); err != nil {
		return errors.Wrapf(err, "parsing key file %s", h.path)
	}

	keys := make(map[int64][]byte, len(kf.Keys))
	for id, enc := range kf.Keys {
		kid, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "key id %q in %s", id, h.path)
		}
		key, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return errors.Wrapf(err, "key %q in %s", id, h.path)
		}
		keys[kid] = key
	}

	h.Lock()
	h.keys = keys
	h.current = kf.Current
	h.Unlock()

	return nil
}

// watch reloads the keyring whenever the key file changes, so keys can
// rotate without a restart. A bad intermediate write keeps the old keys.
func (h *hmacProvider) watch() {
	for {
		select {
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := h.load(); err != nil {
				logger.Warnf("hmac: keyring reload failed: %v", err)
				continue
			}
			logger.Debugf("hmac: keyring reloaded from %s", h.path)
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("hmac: key file watch error: %v", err)
		}
	}
}

// NewProvider returns an HMAC-SHA256 keyring provider. Keys come either
// from WithKeys or from a WithKeyFile keyring that is watched for changes.
func NewProvider(opts ...proof.Option) (proof.Provider, error) {
	options := proof.NewOptions(opts...)

	h := &hmacProvider{
		keys: make(map[int64][]byte),
	}

	if keys, ok := options.Context.Value(keysKey{}).(map[int64][]byte); ok {
		h.keys = keys
	}
	if id, ok := options.Context.Value(currentKey{}).(int64); ok {
		h.current = id
	}

	path, ok := options.Context.Value(fileKey{}).(string)
	if !ok {
		if len(h.keys) == 0 {
			return nil, proof.ErrNoSigningKey
		}
		return h, nil
	}

	h.path = path
	if err := h.load(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "watching key file")
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "watching key file %s", path)
	}
	h.watcher = watcher
	go h.watch()

	return h, nil
}

// WithKeys sets the keyring directly
func WithKeys(keys map[int64][]byte) proof.Option {
	return func(o *proof.Options) {
		if o.Context == nil {
			o.Context = context.Background()
		}
		o.Context = context.WithValue(o.Context, keysKey{}, keys)
	}
}

// WithCurrentKey sets the id of the signing key
func WithCurrentKey(id int64) proof.Option {
	return func(o *proof.Options) {
		if o.Context == nil {
			o.Context = context.Background()
		}
		o.Context = context.WithValue(o.Context, currentKey{}, id)
	}
}

// WithKeyFile loads the keyring from a JSON key file and reloads it on change
func WithKeyFile(path string) proof.Option {
	return func(o *proof.Options) {
		if o.Context == nil {
			o.Context = context.Background()
		}
		o.Context = context.WithValue(o.Context, fileKey{}, path)
	}
}
