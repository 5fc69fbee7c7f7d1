// Package registry manages the list of uploaded files: which are selected,
// which is under the cursor, and the bulk parse and delete actions.
package registry
