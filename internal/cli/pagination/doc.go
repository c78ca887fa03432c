// Package pagination provides the --limit/--offset, --page/--page-size and
// --sort handling shared by listing commands.
//
//   - Params: flag values and validation
//   - Meta: page metadata for a paginated listing
//   - SortActivities and SortActions: stable record sorting by field
package pagination
