// Package files finds and watches the input exports.
//
// Discovery lists the .csv and .xlsx files of a directory in name order.
// Watcher uses fsnotify to call a reload function once per burst of
// changes to those files:
//
//	w := files.NewWatcher(dir, 500*time.Millisecond, svc.Reload, logger)
//	go w.Run(ctx)
package files
