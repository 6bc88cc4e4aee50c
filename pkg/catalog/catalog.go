package catalog

import (
	"fmt"

	"github.com/orneryd/catalogdep/pkg/address"
	"github.com/orneryd/catalogdep/pkg/classregistry"
	"github.com/orneryd/catalogdep/pkg/descriptor"
	"github.com/orneryd/catalogdep/pkg/dropengine"
	"github.com/orneryd/catalogdep/pkg/edgestore"
	"github.com/orneryd/catalogdep/pkg/exprscan"
)

// Catalog bundles every dependency-engine component behind one
// embeddable handle: the EdgeStore backend selected by Config, the
// ClassRegistry the embedder populates with destructors, an
// exprscan.Scanner for recording from expression trees, and the
// dropengine.Engine that drives cascading deletion over all of it.
type Catalog struct {
	Config   *Config
	Store    edgestore.Store
	Registry *classregistry.Registry
	Scanner  *exprscan.Scanner
	Engine   *dropengine.Engine
}

// Open builds a Catalog from cfg, classIDs (the ObjectClass <->
// CatalogClassID bijection the embedder's real catalog uses), and
// resolver (the name lookups Descriptor needs). The caller still must
// register destructors via Registry before issuing any drop.
func Open(cfg *Config, classIDs map[address.ObjectClass]classregistry.CatalogClassID, resolver descriptor.NameResolver, existence exprscan.ExistenceChecker) (*Catalog, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	registry := classregistry.New(classIDs)
	engine := dropengine.New(store, registry, resolver)
	engine.DowngradeNotice = cfg.DistributedRole
	engine.Stats = &dropengine.Stats{}

	return &Catalog{
		Config:   cfg,
		Store:    store,
		Registry: registry,
		Scanner:  exprscan.NewScanner(existence),
		Engine:   engine,
	}, nil
}

func openStore(cfg *Config) (edgestore.Store, error) {
	switch cfg.StoreBackend {
	case "", "memory":
		return edgestore.NewMemoryStore(), nil
	case "badger":
		return edgestore.NewBadgerStore(cfg.BadgerDir)
	default:
		return nil, fmt.Errorf("catalog: unrecognized store_backend %q", cfg.StoreBackend)
	}
}

// Close releases the underlying EdgeStore.
func (c *Catalog) Close() error {
	return c.Store.Close()
}

// RecordDependencyOnExpr scans expr for catalog references and records
// them against depender (spec §4.3/§6).
func (c *Catalog) RecordDependencyOnExpr(depender address.ObjectAddress, expr exprscan.Node, stack exprscan.ScopeStack, kind edgestore.DependencyType) error {
	return exprscan.RecordDependencyOnExpr(c.Store, c.Scanner, depender, expr, stack, kind)
}

// RecordDependencyOnSingleRelExpr is the single-relation variant of
// RecordDependencyOnExpr (spec §4.3/§6).
func (c *Catalog) RecordDependencyOnSingleRelExpr(depender address.ObjectAddress, expr exprscan.Node, relID address.ObjectID, kind, selfKind edgestore.DependencyType) error {
	return exprscan.RecordDependencyOnSingleRelExpr(c.Store, c.Scanner, depender, expr, relID, kind, selfKind)
}
