// Package nativetest links a small VST3 plugin written in C into the test
// binary so the native bridge can be exercised without a plugin on disk.
// Register it with native.WithStaticModule(path, Entry()).
package nativetest
