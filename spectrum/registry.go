package spectrum

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-spectra/hdf5"
)

// Constructor returns a fresh, uninitialized Kind.
type Constructor func() Kind

type registration struct {
	proto Metadata
	ctor  Constructor
}

// Registry maps type names and file extensions to spectrum constructors and
// prototype metadata. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]registration
	exts  map[string]string

	log       *zap.Logger
	telemetry *consumerTelemetry
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	logger        *zap.Logger
	meterProvider metric.MeterProvider
}

// WithLogger sets the logger handed to every Consumer the registry builds.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(o *registryOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMeterProvider sets the provider of the ingestion counters.
func WithMeterProvider(mp metric.MeterProvider) RegistryOption {
	return func(o *registryOptions) {
		o.meterProvider = mp
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	o := &registryOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	ct, err := newConsumerTelemetry(o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("creating spectrum telemetry: %w", err)
	}
	return &Registry{
		types:     make(map[string]registration),
		exts:      make(map[string]string),
		log:       o.logger,
		telemetry: ct,
	}, nil
}

// RegisterDefaults registers the 1D, loss-free 1D and 2D types.
func (r *Registry) RegisterDefaults() {
	r.Register(OneDMetadata(), NewOneD)
	r.Register(TwoDMetadata(), NewTwoD)
	r.Register(LossFreeMetadata(), NewLossFree)
}

// Register adds a type. A later registration replaces an earlier one for
// the same type name and takes over each of its input extensions.
func (r *Registry) Register(proto Metadata, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[proto.Type] = registration{proto: proto.Clone(), ctor: ctor}
	for _, ext := range proto.InputTypes {
		ext = strings.ToLower(ext)
		if prev, ok := r.exts[ext]; ok && prev != proto.Type {
			r.log.Debug("extension reassigned", zap.String("extension", ext), zap.String("from", prev), zap.String("to", proto.Type))
		}
		r.exts[ext] = proto.Type
	}
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Extensions returns the readable file extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.exts))
	for ext := range r.exts {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// TypeForExtension returns the type that reads files with extension ext.
func (r *Registry) TypeForExtension(ext string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	typ, ok := r.exts[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return typ, ok
}

// Prototype returns a copy of the prototype metadata of name.
func (r *Registry) Prototype(name string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.types[name]
	if !ok {
		return Metadata{}, false
	}
	return reg.proto.Clone(), true
}

// SetDefault changes the prototype value of one attribute of typ.
func (r *Registry) SetDefault(typ string, s Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.types[typ]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	if _, ok := reg.proto.Get(s.ID); !ok {
		return fmt.Errorf("%s has no attribute %q", typ, s.ID)
	}
	reg.proto.Set(s)
	r.types[typ] = reg
	return nil
}

// Create returns an uninitialized consumer of type name, or nil when name
// is not registered.
func (r *Registry) Create(name string) *Consumer {
	r.mu.RLock()
	reg, ok := r.types[name]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return newConsumer(reg.proto, reg.ctor, r.log, r.telemetry)
}

func (r *Registry) create(name string) (*Consumer, error) {
	c := r.Create(name)
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return c, nil
}

// CreateFromPrototype returns a consumer initialized from md.
func (r *Registry) CreateFromPrototype(md Metadata) (*Consumer, error) {
	c, err := r.create(md.Type)
	if err != nil {
		return nil, err
	}
	if err := c.FromPrototype(md); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateFromFile reads path with the type registered for its extension.
func (r *Registry) CreateFromFile(path string) (*Consumer, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	typ, ok := r.TypeForExtension(ext)
	if !ok {
		return nil, fmt.Errorf("%w: no type reads %q files", ErrUnsupportedFormat, ext)
	}
	c, err := r.create(typ)
	if err != nil {
		return nil, err
	}
	if err := c.ReadFile(path, ext); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateFromXML restores a consumer of the type named by node.
func (r *Registry) CreateFromXML(node ConsumerXML) (*Consumer, error) {
	c, err := r.create(node.Type)
	if err != nil {
		return nil, err
	}
	if err := c.LoadXML(node); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateFromH5 restores a consumer of the type named by g.
func (r *Registry) CreateFromH5(g *hdf5.Group) (*Consumer, error) {
	typ, err := TypeFromH5(g)
	if err != nil {
		return nil, err
	}
	c, err := r.create(typ)
	if err != nil {
		return nil, err
	}
	if err := c.LoadH5(g); err != nil {
		return nil, err
	}
	return c, nil
}
