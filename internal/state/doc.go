// Package state shares the uploaded-file list between the background poller
// and the UI.
//
//	poller:  files, err := client.ListFiles(ctx); store.Update(files, err)
//	UI:      snap := store.Snapshot()
//
// Store guards a single Snapshot with an RWMutex. Snapshot returns a deep
// enough copy (files slice and error) that the UI can hold it while the
// poller keeps writing.
//
// A failed poll keeps the previous file list, records the error and bumps
// ConsecutiveFailures. Two failures in a row mark the snapshot offline,
// which the header shows instead of a stale list silently aging.
package state
