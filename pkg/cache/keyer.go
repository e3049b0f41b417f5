package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Keyer builds cache keys for each kind of cached artifact.
type Keyer interface {
	LayoutKey(modelHash string, opts LayoutKeyOpts) string
	SVGKey(modelHash string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts are the inputs, besides the model, that change a layout.
type LayoutKeyOpts struct {
	Engine          string
	LevelSeparation float64
	NodeSpacing     float64
	TreeSpacing     float64
	Direction       string
}

// canonical writes the options in a fixed field order so equal options
// always hash alike.
func (o LayoutKeyOpts) canonical() string {
	num := func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
	return strings.Join([]string{
		o.Engine, num(o.LevelSeparation), num(o.NodeSpacing), num(o.TreeSpacing), o.Direction,
	}, "|")
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DefaultKeyer produces "<kind>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns the key for node positions of a model.
func (DefaultKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return key("layout", modelHash, opts)
}

// SVGKey returns the key for a rendered SVG of a model.
func (DefaultKeyer) SVGKey(modelHash string, opts LayoutKeyOpts) string {
	return key("svg", modelHash, opts)
}

func key(kind, modelHash string, opts LayoutKeyOpts) string {
	return kind + ":" + Hash([]byte(modelHash+"\n"+opts.canonical()))
}

// scopedKeyer namespaces another keyer's keys.
type scopedKeyer struct {
	inner Keyer
	scope string
}

// NewScopedKeyer prefixes every key of inner (the default keyer when nil)
// with scope and a colon. Viewers sharing one Redis use it to keep layouts
// of different haview versions apart.
func NewScopedKeyer(inner Keyer, scope string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return scopedKeyer{inner: inner, scope: scope + ":"}
}

func (k scopedKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return k.scope + k.inner.LayoutKey(modelHash, opts)
}

func (k scopedKeyer) SVGKey(modelHash string, opts LayoutKeyOpts) string {
	return k.scope + k.inner.SVGKey(modelHash, opts)
}
