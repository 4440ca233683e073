// Package ast defines the declaration tree the graph engine consumes: per
// file, the declared classes, interfaces and traits, their methods with
// parameters, and the calls and instantiations found in method bodies.
//
// The tree is produced by a Provider (see the treesitter subpackage for the
// PHP implementation) and is read-only once built. Type names are fully
// qualified; resolving namespaces and imports is the provider's job.
//
// Usage:
//
//	provider := treesitter.New()
//	defer provider.Close()
//
//	file, err := provider.Parse("src/Service.php")
//	if err != nil {
//	    return err
//	}
//
//	for _, typ := range file.Types {
//	    fmt.Printf("%s %s with %d methods\n", typ.Kind, typ.Name, len(typ.Methods))
//	}
package ast
