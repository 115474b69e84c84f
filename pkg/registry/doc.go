// Package registry provides the generic name-to-factory registry used
// for both rule plugins (pkg/rule) and vendor export emitters
// (pkg/vendorexport). Registration happens at process start or via an
// explicit call; there is no hot-reloading. Lookups are constant-time
// and fail with UnknownPluginError.
package registry
