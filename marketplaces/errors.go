package marketplaces

import "errors"

// ErrUnsupportedOrderKind is returned by Dispatch when (marketplace, kind)
// is not both enabled in the EnablementTable and present in the builder
// registry.
var ErrUnsupportedOrderKind = errors.New("marketplaces: unsupported order kind")
