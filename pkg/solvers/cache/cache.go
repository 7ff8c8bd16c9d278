// Package cache memoizes SyGuS/SMT query -> response pairs in a sqlite
// database, keyed by a hash of the exact query text, so repeated
// refinement-loop iterations (or separate runs over the same problem)
// never pay for the same external-solver call twice. Grounded on the
// teacher's own tabled-resolution discipline (pldb.go/slg_engine.go:
// "don't recompute a goal already solved"), here applied to external
// solver calls instead of in-process goal resolution.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/gob"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/rkestrel/synduce-go/pkg/solvers"
	"github.com/rkestrel/synduce-go/pkg/sygus"
	"github.com/rkestrel/synduce-go/pkg/synderr"
	"github.com/rkestrel/synduce-go/pkg/term"
)

func init() {
	gob.Register(term.Var{})
	gob.Register(term.Const{})
	gob.Register(term.Tup{})
	gob.Register(term.Bin{})
	gob.Register(term.Un{})
	gob.Register(term.Ite{})
	gob.Register(term.App{})
	gob.Register(term.Data{})
	gob.Register(term.Match{})
	gob.Register(term.Box{})
	gob.Register(term.Base{})
	gob.Register(term.TyVar{})
	gob.Register(term.Fun{})
	gob.Register(term.Tuple{})
	gob.Register(term.Cons{})
}

// Adapter wraps an inner SyGuSPort/SMTPort with a sqlite-backed query
// cache. Either inner port may be nil if that call kind is never routed
// through this adapter.
type Adapter struct {
	db       *sql.DB
	inner    solvers.SyGuSPort
	innerSMT solvers.SMTPort
	log      *logrus.Entry
}

// Open opens (creating if absent) the sqlite database at path and
// prepares its cache tables.
func Open(path string, inner solvers.SyGuSPort, innerSMT solvers.SMTPort) (*Adapter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, synderr.Resourcef("opening solver cache database %q: %v", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS sygus_cache (query_hash TEXT PRIMARY KEY, response BLOB NOT NULL);
CREATE TABLE IF NOT EXISTS smt_cache (query_hash TEXT PRIMARY KEY, result INTEGER NOT NULL);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, synderr.Resourcef("creating solver cache schema: %v", err)
	}
	return &Adapter{
		db:       db,
		inner:    inner,
		innerSMT: innerSMT,
		log:      logrus.NewEntry(logrus.StandardLogger()).WithField("component", "solvers/cache"),
	}, nil
}

// Close releases the underlying database handle.
func (a *Adapter) Close() error { return a.db.Close() }

// Solve serves a SyGuS query from cache when the exact command
// sequence has been seen before, otherwise delegates to the inner port
// and stores the result before returning it.
func (a *Adapter) Solve(ctx context.Context, cmds []sygus.Command) (solvers.Response, error) {
	key := hashCommands(cmds)
	if resp, ok := a.lookupSyGuS(key); ok {
		a.log.WithField("query_hash", key).Debug("sygus cache hit")
		return resp, nil
	}
	if a.inner == nil {
		return solvers.Response{}, synderr.Internalf("solver cache miss with no inner SyGuSPort configured")
	}
	resp, err := a.inner.Solve(ctx, cmds)
	if err != nil {
		return resp, err
	}
	a.storeSyGuS(key, resp)
	return resp, nil
}

// CheckSat serves an SMT query from cache when the exact assertion set
// has been seen before, otherwise delegates to the inner port.
func (a *Adapter) CheckSat(ctx context.Context, check solvers.SMTCheck) (solvers.SatResult, error) {
	key := hashSMTCheck(check)
	if res, ok := a.lookupSMT(key); ok {
		a.log.WithField("query_hash", key).Debug("smt cache hit")
		return res, nil
	}
	if a.innerSMT == nil {
		return solvers.SatUnknown, synderr.Internalf("solver cache miss with no inner SMTPort configured")
	}
	res, err := a.innerSMT.CheckSat(ctx, check)
	if err != nil {
		return res, err
	}
	a.storeSMT(key, res)
	return res, nil
}

func hashCommands(cmds []sygus.Command) string {
	h := sha256.New()
	for _, c := range cmds {
		h.Write([]byte(c))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func hashSMTCheck(check solvers.SMTCheck) string {
	h := sha256.New()
	for _, v := range check.Vars {
		h.Write([]byte(v.Name))
		h.Write([]byte{';'})
	}
	h.Write([]byte{'|'})
	h.Write([]byte(strings.Join(check.Asserts, "\x1f")))
	return hex.EncodeToString(h.Sum(nil))
}

func (a *Adapter) lookupSyGuS(key string) (solvers.Response, bool) {
	var blob []byte
	err := a.db.QueryRow("SELECT response FROM sygus_cache WHERE query_hash = ?", key).Scan(&blob)
	if err != nil {
		return solvers.Response{}, false
	}
	var resp solvers.Response
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&resp); err != nil {
		a.log.WithError(err).Warn("discarding corrupt sygus cache entry")
		return solvers.Response{}, false
	}
	return resp, true
}

func (a *Adapter) storeSyGuS(key string, resp solvers.Response) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(resp); err != nil {
		a.log.WithError(errors.WithStack(err)).Warn("failed to encode sygus response for caching")
		return
	}
	if _, err := a.db.Exec("INSERT OR REPLACE INTO sygus_cache(query_hash, response) VALUES (?, ?)", key, buf.Bytes()); err != nil {
		a.log.WithError(err).Warn("failed to persist sygus cache entry")
	}
}

func (a *Adapter) lookupSMT(key string) (solvers.SatResult, bool) {
	var res int
	err := a.db.QueryRow("SELECT result FROM smt_cache WHERE query_hash = ?", key).Scan(&res)
	if err != nil {
		return solvers.SatUnknown, false
	}
	return solvers.SatResult(res), true
}

func (a *Adapter) storeSMT(key string, res solvers.SatResult) {
	if _, err := a.db.Exec("INSERT OR REPLACE INTO smt_cache(query_hash, result) VALUES (?, ?)", key, int(res)); err != nil {
		a.log.WithError(err).Warn("failed to persist smt cache entry")
	}
}
