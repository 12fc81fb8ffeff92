// Package tomledit provides a format-preserving TOML document editor.
//
// A [Document] parsed from bytes prints back byte-for-byte identical as long
// as it is not modified. Edits only touch the entries they address: comments,
// blank lines, key order, quoting and the layout of unrelated tables are kept.
//
// # Model
//
// The document is a tree of nodes:
//
//   - [Table]: a section introduced by a [header], a dotted-key table
//     (a.b = 1) or an implicit table that only exists because a deeper
//     header names it
//   - [ArrayOfTables]: the elements introduced by [[header]]
//   - [InlineTable]: { key = value, ... }
//   - [String], [Bool], [Literal] (numbers and datetimes) and [Array]
//
// [Table] and [InlineTable] both satisfy [TableLike], so code that reads or
// rewrites key/value pairs does not need to care which form a document uses.
//
// # Usage
//
//	doc, err := tomledit.Parse(data)
//	if err != nil {
//	    return err
//	}
//	deps, ok := tomledit.Lookup(doc.Root(), "dependencies")
//	if t, ok := tomledit.AsTableLike(deps); ok {
//	    t.Set("serde", tomledit.NewString("1.0"))
//	}
//	os.WriteFile(path, doc.Bytes(), 0o644)
//
// Input is validated with github.com/BurntSushi/toml before the editable tree
// is built, so syntax errors carry that decoder's line information.
//
// # Printing
//
// Header tables print in their original order; tables created by edits are
// appended after them. New key/value lines are appended to the end of the
// body they belong to. Implicit tables print a header only once they hold
// values.
package tomledit
