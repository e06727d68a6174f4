package hdf5

import "go.uber.org/zap"

// FileOption configures how a file is created or opened.
type FileOption func(*fileOptions)

type fileOptions struct {
	logger *zap.Logger
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger used for flush and load diagnostics.
func WithLogger(l *zap.Logger) FileOption {
	return func(o *fileOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
