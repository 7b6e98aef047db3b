package catalog

// UpsellItem is one entry of the fixed upsell reference datasets. These
// catalogs back the insurance, accessories and watch funnel stages and are
// independent of the scraped handset catalog.
type UpsellItem struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

var insurancePlans = []UpsellItem{
	{
		Name:        "Screen Damage Insurance",
		Price:       "£5 per month",
		Description: "This policy insures your device against accidental damage to the front screen and any additional damage, except for liquid, catastrophic, or cosmetic damage.",
	},
	{
		Name:        "Loss, theft, damage and breakdown cover",
		Price:       "£13.50 per month",
		Description: "This policy insures your device against loss, theft, damage and breakdown outside of the manufacturer's warranty.",
	},
	{
		Name:        "Damage and breakdown cover",
		Price:       "£8.50 per month",
		Description: "This policy insures your device against damage and breakdown outside of the manufacturer's warranty.",
	},
}

var accessories = []UpsellItem{
	{
		Name:        "Caseym Case & Tempered Glass Black",
		Price:       "£29.99",
		Description: "Eco-conscious protection pack for your phone, designed to protect against those clumsy 'oops' moments. The caseym protection pack contains a matte black durable case manufactured with biodegradable materials, and a robust and reliable tempered glass screen protector. All caseym products are packaged in recycled and recyclable kraft card.",
	},
	{
		Name:        "JLab GO Air Pop Slate",
		Price:       "£24.99",
		Description: "32+ hours Bluetooth® 5.1 playtime, 8+ hours in each earbud, 15% smaller fit, Custom EQ3 Sound, Touch Sensors",
	},
	{
		Name:        "Belkin 30w Type C Adapter White",
		Price:       "£24.99",
		Description: "30 Watt USB-C wall charger, Fast charging, 0-50% in 24 minutes (iPhone 13)",
	},
	{
		Name:        "PanzerGlass Screen Protector Clear",
		Price:       "£15.99",
		Description: "The PanzerGlass screen protector with antibacterial coating has the same features as the original PanzerGlass and will protect your screen from scratches and bumps. The Standard Fit glass is reduced in size and features full silicone adhesive which gives perfect touch sensitivity whilst still delivering the superior PanzerGlass strength",
	},
}

var watches = []UpsellItem{
	{
		Name:        "Apple Watch Series 10 (GPS+4G) Cellular 46mm Aluminium",
		Price:       "£499",
		Description: "The Apple Watch Series 10 is packed with advanced health and fitness features on an even bigger screen, plus faster charging",
	},
	{
		Name:        "Apple Watch Ultra 2 (GPS+4G) Cellular 49mm Black Titanium Ocean Band",
		Price:       "£799",
		Description: "Designed for water-based adventures, the Apple Watch Ultra 2 shows water temperature and route maps for open water swimming.",
	},
}

// InsurancePlans returns the insurance reference catalog.
func InsurancePlans() []UpsellItem { return insurancePlans }

// Accessories returns the accessories reference catalog.
func Accessories() []UpsellItem { return accessories }

// Watches returns the wearable reference catalog.
func Watches() []UpsellItem { return watches }
