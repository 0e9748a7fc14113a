package usecase

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/vsindex/internal/ports"
)

// Settings are set once at startup by the host.
type Settings struct {
	CacheDir  string
	PluginDir string
	// Source names the capability used to open videos, "lsmas" when empty.
	Source string
}

type Deps struct {
	Registry ports.Registry
	Log      logrus.FieldLogger
	Settings Settings
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		d.Log = l
	}
	if d.Settings.Source == "" {
		d.Settings.Source = CapLSMAS
	}
	return Usecase{d: d}
}

// Capability names and the plugin files they are loaded from.
const (
	CapLSMAS  = "lsmas"
	CapMP4FF  = "mp4ff"
	CapWWXD   = "wwxd"
	CapScxvid = "scxvid"
	CapBAS    = "bas"
)

var loadNames = map[string]string{
	CapLSMAS:  "libvslsmashsource",
	CapMP4FF:  "libvsmp4ff",
	CapWWXD:   "libwwxd64",
	CapScxvid: "libscxvid",
	CapBAS:    "BestAudioSource",
}

// EnsurePlugin makes sure the capability name is registered, loading
// loadName from the plugin directory if it is not. An empty loadName means
// there is nothing to load. A failed load is not reported on its own: the
// capability is checked again and, if still missing, a *ports.CapabilityError
// carrying errMsg is returned.
func (u Usecase) EnsurePlugin(name, loadName, errMsg string) error {
	if u.d.Registry.Has(name) {
		return nil
	}
	var loadErr error
	switch {
	case loadName == "":
		loadErr = errors.New("no plugin to load")
	case u.d.Settings.PluginDir != "":
		loadErr = u.d.Registry.Load(u.d.Settings.PluginDir, loadName)
		if loadErr != nil {
			u.d.Log.WithError(loadErr).WithField("plugin", loadName).Debug("plugin load failed")
		}
	default:
		loadErr = errors.New("no plugin directory configured")
	}
	if u.d.Registry.Has(name) {
		return nil
	}
	return &ports.CapabilityError{Name: name, Message: errMsg, Err: loadErr}
}

// lookup ensures the capability and returns its provider as T.
func lookup[T any](u Usecase, name, errMsg string) (T, error) {
	var zero T
	loadName, ok := loadNames[name]
	if !ok {
		loadName = name
	}
	if err := u.EnsurePlugin(name, loadName, errMsg); err != nil {
		return zero, err
	}
	p, _ := u.d.Registry.Lookup(name)
	v, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("capability %s provides %T, want %T", name, p, zero)
	}
	return v, nil
}
