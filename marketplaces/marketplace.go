// Package marketplaces implements the closed tagged variant over
// marketplace x order kind called for in SPEC_FULL.md §4.3/§9: a static
// enablement table plus a builder capability per enabled variant, checked
// for exhaustiveness at startup since Go has no compile-time sum-type
// checker.
package marketplaces

// Marketplace identifies one of the recognized external NFT marketplaces.
type Marketplace string

// Recognized marketplaces, unchanged from spec.md §6.
const (
	Infinity         Marketplace = "infinity"
	Seaport          Marketplace = "seaport"
	WyvernV2         Marketplace = "wyvern-v2"
	WyvernV23        Marketplace = "wyvern-v2.3"
	LooksRare        Marketplace = "looks-rare"
	ZeroExV4ERC721   Marketplace = "zeroex-v4-erc721"
	ZeroExV4ERC1155  Marketplace = "zeroex-v4-erc1155"
	Foundation       Marketplace = "foundation"
	X2Y2             Marketplace = "x2y2"
	Rarible          Marketplace = "rarible"
	ElementERC721    Marketplace = "element-erc721"
	ElementERC1155   Marketplace = "element-erc1155"
	Quixotic         Marketplace = "quixotic"
	Nouns            Marketplace = "nouns"
	ZoraV3           Marketplace = "zora-v3"
	Mint             Marketplace = "mint"
	Cryptopunks      Marketplace = "cryptopunks"
	Sudoswap         Marketplace = "sudoswap"
	Universe         Marketplace = "universe"
	NFTX             Marketplace = "nftx"
	Blur             Marketplace = "blur"
	Forward          Marketplace = "forward"
)

// AllMarketplaces lists every recognized marketplace, in enablement-table
// and exhaustiveness-check iteration order.
var AllMarketplaces = []Marketplace{
	Infinity, Seaport, WyvernV2, WyvernV23, LooksRare, ZeroExV4ERC721,
	ZeroExV4ERC1155, Foundation, X2Y2, Rarible, ElementERC721, ElementERC1155,
	Quixotic, Nouns, ZoraV3, Mint, Cryptopunks, Sudoswap, Universe, NFTX,
	Blur, Forward,
}

// OrderKind identifies one of the recognized per-marketplace order shapes.
type OrderKind string

const (
	SingleToken  OrderKind = "single-token"
	ContractWide OrderKind = "contract-wide"
	Complex      OrderKind = "complex"
	BundleAsk    OrderKind = "bundle-ask"
	TokenList    OrderKind = "token-list"
)

// AllKinds lists every recognized order kind.
var AllKinds = []OrderKind{SingleToken, ContractWide, Complex, BundleAsk, TokenList}
