package featurekit

import (
	"context"
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
)

// Transaction executes a function within a database transaction with
// automatic commit/rollback. The function receives a Service bound to the
// transaction; use it for every operation inside the scope. If the function
// returns an error, the transaction is rolled back. Otherwise, it's
// committed. Nested calls use savepoints.
//
// Example:
//
//	err := service.Transaction(ctx, func(tx *featurekit.Service) error {
//	    if err := tx.SetGlobalFlag(ctx, superAdmin, "canViewReports", false); err != nil {
//	        return err // This will cause a rollback
//	    }
//	    if err := tx.SetAdminGrant(ctx, superAdmin, adminID, "canViewReports", false); err != nil {
//	        return err // This will cause a rollback
//	    }
//	    return nil // This will cause a commit
//	})
func (s *Service) Transaction(ctx context.Context, fn func(tx *Service) error) error {
	start := time.Now()

	err := s.runInTransaction(ctx, func(idb dbkit.IDB) error {
		return fn(s.withDB(idb))
	})

	// Record transaction metrics
	s.txMonitor.recordTransaction(time.Since(start), err == nil)

	return err
}

// TransactionWithOptions executes a function within a database transaction
// with custom options. Supports read-only transactions, isolation levels,
// and other transaction parameters. Options are ignored for nested
// (savepoint) transactions.
//
// Example:
//
//	err := service.TransactionWithOptions(ctx, dbkit.SerializableTxOptions(), func(tx *featurekit.Service) error {
//	    _, err := tx.SoftDelete(ctx, "employer", employerID)
//	    return err
//	})
func (s *Service) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(tx *Service) error) error {
	start := time.Now()
	var err error

	if tx, ok := s.db.(*dbkit.Tx); ok {
		// Already in a transaction, use a savepoint; no options support
		// in nested transactions.
		err = tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(s.withDB(tx))
		})
	} else if db, ok := s.db.(*dbkit.DBKit); ok {
		err = db.TransactionWithOptions(ctx, opts, func(tx *dbkit.Tx) error {
			return fn(s.withDB(tx))
		})
	} else {
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	s.txMonitor.recordTransaction(time.Since(start), err == nil)

	return err
}

// ReadOnlyTransaction executes a function within a read-only database
// transaction. Useful for multi-query reads that want a consistent view,
// e.g. loading the flag set and the recycle bin together.
//
// Example:
//
//	err := service.ReadOnlyTransaction(ctx, func(tx *featurekit.Service) error {
//	    flags, err := tx.EffectiveAdminFlags(ctx, adminID)
//	    if err != nil {
//	        return err
//	    }
//	    _, err = tx.ListDeletedIDs(ctx, "candidate")
//	    return err
//	})
func (s *Service) ReadOnlyTransaction(ctx context.Context, fn func(tx *Service) error) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}

// runInTransaction runs fn against a transactional handle, starting a new
// transaction or reusing the current one via a savepoint. Every statement
// inside a cascade goes through the handle passed to fn, never through the
// service's base connection.
func (s *Service) runInTransaction(ctx context.Context, fn func(idb dbkit.IDB) error) error {
	if tx, ok := s.db.(*dbkit.Tx); ok {
		return tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	}
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	}
	return fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
}

// withDB returns a shallow copy of the service bound to another database
// handle; registries and the transaction monitor are shared.
func (s *Service) withDB(idb dbkit.IDB) *Service {
	return &Service{
		db:        idb,
		features:  s.features,
		entities:  s.entities,
		txMonitor: s.txMonitor,
	}
}
