package shopify

// Product is a read-only snapshot of one catalog product for a vendor.
// Titles commonly encode "L-Supplier / ProductName / ABV / Format".
type Product struct {
	ID       string
	Title    string
	Status   string
	Format   string
	KegType  string
	ImageURL string
	Variants []Variant
}

// Variant is one packaging/size option of a product, e.g. "12 x 33cl".
type Variant struct {
	ID                string
	Title             string
	SKU               string
	InventoryQuantity int
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data struct {
		Products struct {
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type productNode struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Status     string         `json:"status"`
	FormatMeta *metafieldNode `json:"format_meta"`
	KegMeta    *metafieldNode `json:"keg_meta"`
	Image      *imageNode     `json:"featuredImage"`
	Variants   struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

type metafieldNode struct {
	Value string `json:"value"`
}

type imageNode struct {
	URL string `json:"url"`
}

type variantNode struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	InventoryQuantity int    `json:"inventoryQuantity"`
}
