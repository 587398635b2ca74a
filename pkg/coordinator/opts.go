package coordinator

import (
	"time"

	"github.com/atomixdata/atomix/internal/codec"
	"github.com/atomixdata/atomix/internal/logging"
	"github.com/atomixdata/atomix/pkg/epochreader"
	"github.com/atomixdata/atomix/pkg/oracle"
	"github.com/atomixdata/atomix/pkg/rangeclient"
	"github.com/atomixdata/atomix/pkg/txstatestore"
	"github.com/atomixdata/atomix/pkg/universe"
)

// txnConfig holds the knobs a Factory is built with, configured through
// functional Opts the same way kgo.NewClient(opts ...Opt) is (see
// SPEC_FULL.md's Configuration section).
type txnConfig struct {
	overallTimeout time.Duration
	logger         logging.Logger
	batchCodec     codec.Codec
	enforceLease   bool
}

func defaultTxnConfig() txnConfig {
	return txnConfig{
		overallTimeout: 10 * time.Second,
		logger:         logging.Nop(),
		batchCodec:     codec.None{},
		enforceLease:   true,
	}
}

// Opt configures a Factory.
type Opt func(*txnConfig)

// WithOverallTimeout sets the timeout attached to every TransactionInfo
// the factory creates.
func WithOverallTimeout(d time.Duration) Opt {
	return func(c *txnConfig) { c.overallTimeout = d }
}

// WithLogger sets the Logger transactions created by this factory log
// through.
func WithLogger(l logging.Logger) Opt {
	return func(c *txnConfig) { c.logger = l }
}

// WithBatchCodec sets the compression codec used to shrink the buffered
// write batch handed to a prepare RPC (see internal/codec).
func WithBatchCodec(c codec.Codec) Opt {
	return func(cfg *txnConfig) { cfg.batchCodec = c }
}

// WithoutEpochLeaseEnforcement disables the epoch-lease revalidation step
// (spec.md §4.5.3 step 5, an Open Question in spec.md §9). This repo
// defaults to enforcing it; this option exists for a deployment whose
// range servers independently fence on every post-prepare action, as
// spec.md §4.5.3 step 5 allows.
func WithoutEpochLeaseEnforcement() Opt {
	return func(c *txnConfig) { c.enforceLease = false }
}

// Factory is the per-process collaborator bundle a "frontend" (spec.md §3)
// uses to open transactions. All collaborator handles are shared by
// reference and must be safe for concurrent use (spec.md §5).
type Factory struct {
	universe     universe.Directory
	oracle       oracle.AssignmentOracle
	epochReader  epochreader.EpochReader
	rangeClient  rangeclient.RangeClient
	txStateStore txstatestore.TxStateStore
	cfg          txnConfig
}

// NewFactory builds a Factory over the given collaborators.
func NewFactory(
	u universe.Directory,
	o oracle.AssignmentOracle,
	e epochreader.EpochReader,
	rc rangeclient.RangeClient,
	ts txstatestore.TxStateStore,
	opts ...Opt,
) *Factory {
	cfg := defaultTxnConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Factory{
		universe:     u,
		oracle:       o,
		epochReader:  e,
		rangeClient:  rc,
		txStateStore: ts,
		cfg:          cfg,
	}
}

// NewTransaction opens a fresh Running transaction.
func (f *Factory) NewTransaction() *Transaction {
	return newTransaction(f)
}
