package coordinator

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/atomixdata/atomix/internal/idkey"
	"github.com/atomixdata/atomix/internal/logging"
	"github.com/atomixdata/atomix/pkg/atomixtypes"
	"github.com/atomixdata/atomix/pkg/epochreader"
	"github.com/atomixdata/atomix/pkg/rangeclient"
	"github.com/atomixdata/atomix/pkg/txstatestore"
)

// Transaction is C5, the 2PC driver: a single client-facing transaction,
// buffering writes per range, fencing on leader sequence number, and
// driving prepare/commit/abort fan-out across every range it touched
// (spec.md §4.5). A Transaction is not safe for concurrent use by
// multiple goroutines; open one per logical unit of work.
type Transaction struct {
	info *atomixtypes.TransactionInfo
	cfg  txnConfig

	universe     *keyspaceResolver
	router       *keyRouter
	rangeClient  rangeclient.RangeClient
	epochReader  epochreader.EpochReader
	txStateStore txstatestore.TxStateStore

	participants *participantSet
	state        state
}

func newTransaction(f *Factory) *Transaction {
	return &Transaction{
		info:         atomixtypes.NewTransactionInfo(f.cfg.overallTimeout),
		cfg:          f.cfg,
		universe:     newKeyspaceResolver(f.universe),
		router:       newKeyRouter(f.oracle),
		rangeClient:  f.rangeClient,
		epochReader:  f.epochReader,
		txStateStore: f.txStateStore,
		participants: newParticipantSet(),
		state:        stateRunning,
	}
}

// Info returns the identity and timing envelope of this transaction.
func (t *Transaction) Info() *atomixtypes.TransactionInfo { return t.info }

// resolve turns a (keyspace, key) pair into the range that owns it,
// creating or reusing that range's participant entry (spec.md §4.1-4.2).
func (t *Transaction) resolve(ctx context.Context, ks atomixtypes.Keyspace, key []byte) (atomixtypes.FullRangeId, *participantRange, error) {
	keyspaceID, err := t.universe.resolve(ctx, ks)
	if err != nil {
		return atomixtypes.FullRangeId{}, nil, err
	}
	rangeID, err := t.router.route(ctx, keyspaceID, key)
	if err != nil {
		return atomixtypes.FullRangeId{}, nil, err
	}
	return rangeID, t.participants.getOrCreate(rangeID), nil
}

// Get reads a key, honoring read-your-writes against this transaction's
// own buffered writes and deletes before issuing an RPC (spec.md §4.5.1).
// A nil return with found=false means the key does not exist.
func (t *Transaction) Get(ctx context.Context, ks atomixtypes.Keyspace, key []byte) (val []byte, found bool, err error) {
	if err := checkStillRunning(t.state); err != nil {
		return nil, false, err
	}
	rangeID, p, err := t.resolve(ctx, ks, key)
	if err != nil {
		return nil, false, err
	}
	if v, deleted, ok := p.localRead(string(key)); ok {
		if deleted {
			return nil, false, nil
		}
		return v, true, nil
	}

	resp, err := t.rangeClient.Get(ctx, t.info, rangeID, key)
	if err != nil {
		return nil, false, ErrInternal(err)
	}

	observed := resp.LeaderSequenceNum
	if !observed.IsInvalid() && p.leaderSeq.IsUnset() {
		p.leaderSeq = observed
	}
	if !observed.Equal(p.leaderSeq) {
		t.recordAbort(ctx)
		return nil, false, ErrTransactionAborted(AbortReasonRangeLeadershipChanged)
	}

	p.readset[string(key)] = struct{}{}
	return resp.Val, resp.Found, nil
}

// Put buffers a write against key; it is visible to this transaction's
// own later Gets but is not sent to any range until Commit (spec.md §4.5.2).
func (t *Transaction) Put(ctx context.Context, ks atomixtypes.Keyspace, key, val []byte) error {
	if err := checkStillRunning(t.state); err != nil {
		return err
	}
	_, p, err := t.resolve(ctx, ks, key)
	if err != nil {
		return err
	}
	p.put(string(key), val)
	return nil
}

// Del buffers a delete against key, the mirror of Put (spec.md §4.5.2).
func (t *Transaction) Del(ctx context.Context, ks atomixtypes.Keyspace, key []byte) error {
	if err := checkStillRunning(t.state); err != nil {
		return err
	}
	_, p, err := t.resolve(ctx, ks, key)
	if err != nil {
		return err
	}
	p.del(string(key))
	return nil
}

// Prefetch hints the owning range to warm its cache for keys. It never
// fails the transaction: routing failures are reported, but a failed or
// rejected prefetch RPC is swallowed (SPEC_FULL.md's supplemented
// Prefetch feature; it touches no read/write/delete set).
func (t *Transaction) Prefetch(ctx context.Context, ks atomixtypes.Keyspace, keys ...[]byte) error {
	if err := checkStillRunning(t.state); err != nil {
		return err
	}
	byRange := make(map[atomixtypes.FullRangeId][][]byte)
	for _, key := range keys {
		rangeID, _, err := t.resolve(ctx, ks, key)
		if err != nil {
			return err
		}
		byRange[rangeID] = append(byRange[rangeID], key)
	}
	var wg sync.WaitGroup
	for rangeID, rangeKeys := range byRange {
		rangeID, rangeKeys := rangeID, rangeKeys
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := t.rangeClient.Prefetch(ctx, t.info, rangeID, rangeKeys); err != nil {
				t.cfg.logger.Log(logging.LogLevelDebug, "prefetch failed, ignoring", "range", rangeID, "err", err)
			}
		}()
	}
	wg.Wait()
	return nil
}

type prepareOutcome struct {
	rangeID atomixtypes.FullRangeId
	resp    rangeclient.PrepareResponse
}

// Commit drives the full prepare/decide/commit-or-abort sequence across
// every range this transaction touched (spec.md §4.5.3-4.5.4). It leaves
// the transaction Committed or Aborted; there is no other outcome.
func (t *Transaction) Commit(ctx context.Context) error {
	if err := checkStillRunning(t.state); err != nil {
		return err
	}
	t.state = statePreparing

	if t.participants.len() == 0 {
		return t.decideAndCommit(ctx, nil)
	}

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	outcomes := make([]prepareOutcome, 0, t.participants.len())

	for rangeID, p := range t.participants.ranges {
		rangeID, p := rangeID, p
		writes := p.writesAsRecords()
		deletes := p.deletesAsKeys()
		hasReads := p.hasReads()
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					t.cfg.logger.Log(logging.LogLevelError, "prepare panicked", "range", rangeID, "panic", r)
					err = ErrTransactionAborted(AbortReasonPrepareFailed)
				}
			}()
			if raw, compressed, cerr := compressBatch(t.cfg.batchCodec, writes, deletes); cerr != nil {
				t.cfg.logger.Log(logging.LogLevelWarn, "batch compression failed, sending uncompressed", "range", rangeID, "codec", t.cfg.batchCodec.Name(), "err", cerr)
			} else {
				t.cfg.logger.Log(logging.LogLevelDebug, "prepared write batch", "range", rangeID, "codec", t.cfg.batchCodec.Name(), "raw_bytes", len(raw), "compressed_bytes", len(compressed))
			}

			key := idkey.Prepare(t.info.ID, rangeID, writes, deletes)
			resp, rerr := t.rangeClient.Prepare(gctx, t.info, rangeID, key, hasReads, writes, deletes)
			if rerr != nil {
				return mapRangeClientError(rerr)
			}
			mu.Lock()
			outcomes = append(outcomes, prepareOutcome{rangeID: rangeID, resp: resp})
			mu.Unlock()
			return nil
		})
	}

	var epoch atomixtypes.Epoch
	g.Go(func() error {
		e, err := t.epochReader.ReadEpoch(gctx)
		if err != nil {
			return ErrTransactionAborted(AbortReasonPrepareFailed)
		}
		epoch = e
		return nil
	})

	if err := g.Wait(); err != nil {
		t.recordAbort(ctx)
		return err
	}

	if t.cfg.enforceLease {
		for _, o := range outcomes {
			if !o.resp.EpochLease.Covers(epoch) {
				t.recordAbort(ctx)
				return ErrTransactionAborted(AbortReasonRangeLeaseExpired)
			}
		}
	}

	return t.decideAndCommit(ctx, &epoch)
}

// decideAndCommit consults the transaction state store and, on a Committed
// decision, fans out commit RPCs (spec.md §4.5.4). epoch is nil only for
// the empty-participant-set case, where no decision is needed beyond the
// state store's own commit bookkeeping; this repo still consults it so
// every transaction gets exactly one durable decision, matching spec.md §6.
func (t *Transaction) decideAndCommit(ctx context.Context, epoch *atomixtypes.Epoch) error {
	var decideEpoch atomixtypes.Epoch
	if epoch != nil {
		decideEpoch = *epoch
	} else {
		e, err := t.epochReader.ReadEpoch(ctx)
		if err != nil {
			t.recordAbort(ctx)
			return ErrTransactionAborted(AbortReasonPrepareFailed)
		}
		decideEpoch = e
	}

	outcome, info, err := t.txStateStore.TryCommit(ctx, t.info.ID, decideEpoch)
	if err != nil {
		t.recordAbort(ctx)
		return ErrInternal(err)
	}

	switch outcome {
	case txstatestore.OutcomeAborted:
		// A concurrent abort (e.g. a coordinator-timeout daemon) already
		// won the race; the decision is already durable, so there is
		// nothing further to fan out here (spec.md §4.5.3 step 6).
		t.state = stateAborted
		return ErrTransactionAborted(AbortReasonOther)
	case txstatestore.OutcomeCommitted:
		if info.Epoch != decideEpoch {
			t.cfg.logger.Log(logging.LogLevelError, "fatal: state store committed at a different epoch than requested", "tx", t.info.ID, "requested", decideEpoch, "decided", info.Epoch)
			panic("coordinator: transaction state store committed at an epoch that was not requested")
		}
	default:
		t.cfg.logger.Log(logging.LogLevelError, "fatal: transaction state store returned an unrecognized outcome", "tx", t.info.ID, "outcome", outcome)
		panic("coordinator: transaction state store returned an unrecognized outcome")
	}

	t.state = stateCommitted

	var wg sync.WaitGroup
	for rangeID := range t.participants.ranges {
		rangeID := rangeID
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := idkey.CommitOrAbort(t.info.ID, rangeID, decideEpoch, true)
			if err := t.rangeClient.Commit(ctx, t.info, rangeID, key, decideEpoch); err != nil {
				t.cfg.logger.Log(logging.LogLevelWarn, "commit RPC failed, range will catch up via retry", "range", rangeID, "err", err)
			}
		}()
	}
	wg.Wait()
	return nil
}

// Abort voluntarily terminates the transaction (spec.md §4.5.4 bullet
// "direct abort"). Aborting an already-aborted transaction is a no-op.
func (t *Transaction) Abort(ctx context.Context) error {
	if t.state == stateAborted {
		return nil
	}
	if err := checkStillRunning(t.state); err != nil {
		return err
	}
	t.recordAbort(ctx)
	return nil
}

// recordAbort moves the transaction to Aborted, fans out best-effort abort
// RPCs to every participant range, and registers the abort with the state
// store so a racing commit attempt (from this coordinator instance or a
// timed-out retry) cannot later decide Committed (spec.md §4.5.4 step 3).
func (t *Transaction) recordAbort(ctx context.Context) {
	t.state = stateAborted

	var wg sync.WaitGroup
	for rangeID := range t.participants.ranges {
		rangeID := rangeID
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := idkey.CommitOrAbort(t.info.ID, rangeID, 0, false)
			if err := t.rangeClient.Abort(ctx, t.info, rangeID, key); err != nil {
				t.cfg.logger.Log(logging.LogLevelWarn, "abort RPC failed", "range", rangeID, "err", err)
			}
		}()
	}

	outcome, info, err := t.txStateStore.TryAbort(ctx, t.info.ID)
	if err != nil {
		t.cfg.logger.Log(logging.LogLevelError, "state store try_abort failed", "tx", t.info.ID, "err", err)
	} else if outcome != txstatestore.OutcomeAborted {
		t.cfg.logger.Log(logging.LogLevelError, "fatal: transaction already committed during abort", "tx", t.info.ID, "epoch", info.Epoch)
		panic("coordinator: transaction state store reports Committed while recording an abort")
	}

	wg.Wait()
}
