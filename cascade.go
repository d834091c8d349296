package featurekit

import (
	"fmt"
)

// cascadeOp selects the direction of a cascade.
type cascadeOp int

const (
	opSoftDelete cascadeOp = iota
	opRestore
)

// cascadeStatement is one UPDATE of a cascade, targeting every row of one
// table that transitively references the root entity id. The Where clause
// binds the root id as its single parameter.
type cascadeStatement struct {
	Entity string
	Table  string
	Flag   int    // value written to is_deleted
	Where  string // filter selecting the affected rows
}

// buildCascade expands the dependency graph of an entity into the ordered
// list of statements a soft delete or restore must execute: first the root
// row, then every transitive dependent. Children below the first level are
// reached through IN-subqueries on the foreign key chain, so a single root
// id drives the whole cascade.
//
// The asymmetry between the two directions is encoded here and nowhere
// else: soft delete overwrites the flag blindly, restore only touches rows
// currently flagged deleted.
func buildCascade(registry *EntityRegistry, entityType string, op cascadeOp) ([]cascadeStatement, error) {
	root := registry.Get(entityType)
	if root == nil {
		return nil, NewError(ErrUnknownEntity, fmt.Sprintf("entity type %q not registered", entityType)).
			WithEntity(entityType, "")
	}

	flag := 1
	if op == opRestore {
		flag = 0
	}

	stmts := []cascadeStatement{{
		Entity: root.name,
		Table:  root.table,
		Flag:   flag,
		Where:  fmt.Sprintf("%s = ?", root.idColumn),
	}}

	visited := map[string]bool{root.name: true}
	stmts = appendChildren(registry, stmts, root, "", op, flag, visited)
	return stmts, nil
}

// appendChildren walks the edges of parent depth-first. parentIDs is the
// SELECT that yields the affected parent ids; it is empty for the root,
// whose id is the bind parameter itself.
func appendChildren(registry *EntityRegistry, stmts []cascadeStatement, parent *EntityDefinition, parentIDs string, op cascadeOp, flag int, visited map[string]bool) []cascadeStatement {
	for _, edge := range parent.edges {
		child := registry.Get(edge.Child)
		if child == nil || visited[child.name] {
			continue
		}
		visited[child.name] = true

		var childWhere string
		if parentIDs == "" {
			// Direct child of the root: the FK matches the root id itself.
			childWhere = fmt.Sprintf("%s = ?", edge.FKColumn)
		} else {
			childWhere = fmt.Sprintf("%s IN (%s)", edge.FKColumn, parentIDs)
		}
		childIDs := fmt.Sprintf("SELECT %s FROM %s WHERE %s", child.idColumn, child.table, childWhere)

		where := childWhere
		if op == opRestore {
			// Restore only flips rows currently flagged deleted; this
			// filter is the documented asymmetry with soft delete.
			where += " AND is_deleted = 1"
		}

		stmts = append(stmts, cascadeStatement{
			Entity: child.name,
			Table:  child.table,
			Flag:   flag,
			Where:  where,
		})

		stmts = appendChildren(registry, stmts, child, childIDs, op, flag, visited)
	}
	return stmts
}
