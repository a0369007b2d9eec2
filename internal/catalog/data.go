package catalog

import "github.com/franckalain/ecoscan/internal/models"

var defaultMaterials = []models.MaterialEntry{
	{ID: "plastic", Name: "Plastic", Icon: "🧴", EmissionFactor: 3.5, Description: "Synthetic polymer material"},
	{ID: "metal", Name: "Metal", Icon: "🔩", EmissionFactor: 8.2, Description: "Metallic materials (steel, aluminum, etc.)"},
	{ID: "glass", Name: "Glass", Icon: "🪟", EmissionFactor: 0.9, Description: "Silica-based material"},
	{ID: "paper", Name: "Paper", Icon: "📄", EmissionFactor: 1.2, Description: "Cellulose-based material"},
	{ID: "fabric", Name: "Fabric", Icon: "👕", EmissionFactor: 2.1, Description: "Textile materials"},
	{ID: "wood", Name: "Wood", Icon: "🪵", EmissionFactor: 0.4, Description: "Natural wood material"},
	{ID: "ceramic", Name: "Ceramic", Icon: "🏺", EmissionFactor: 1.8, Description: "Clay-based material"},
	{ID: "rubber", Name: "Rubber", Icon: "🛞", EmissionFactor: 2.8, Description: "Elastic polymer material"},
}

var defaultAlternatives = []models.AlternativeEntry{
	{
		MaterialID:  "plastic",
		Name:        "Bamboo Products",
		Icon:        "🎋",
		Description: "Bamboo is a fast-growing, renewable resource that can replace many plastic items.",
		Benefits:    []string{"Biodegradable", "Renewable", "Durable", "Lightweight"},
		Savings:     "85% less CO2",
		Examples:    "Bamboo utensils, containers, phone cases",
	},
	{
		MaterialID:  "plastic",
		Name:        "Glass Containers",
		Icon:        "🫙",
		Description: "Glass is infinitely recyclable and doesn't leach chemicals.",
		Benefits:    []string{"Infinitely recyclable", "Non-toxic", "Durable", "Heat resistant"},
		Savings:     "60% less CO2",
		Examples:    "Glass jars, bottles, food storage",
	},
	{
		MaterialID:  "plastic",
		Name:        "Stainless Steel",
		Icon:        "🥤",
		Description: "Stainless steel is durable, recyclable, and long-lasting.",
		Benefits:    []string{"Highly recyclable", "Durable", "Non-toxic", "Long-lasting"},
		Savings:     "70% less CO2",
		Examples:    "Water bottles, lunch boxes, straws",
	},
	{
		MaterialID:  "metal",
		Name:        "Recycled Aluminum",
		Icon:        "♻️",
		Description: "Recycled aluminum uses 95% less energy than virgin aluminum.",
		Benefits:    []string{"95% energy savings", "Infinitely recyclable", "Same quality", "Lower cost"},
		Savings:     "95% less CO2",
		Examples:    "Cans, foil, construction materials",
	},
	{
		MaterialID:  "metal",
		Name:        "Bamboo Steel",
		Icon:        "🎋",
		Description: "Bamboo-reinforced materials can replace some metal applications.",
		Benefits:    []string{"Renewable", "Lightweight", "Strong", "Biodegradable"},
		Savings:     "80% less CO2",
		Examples:    "Furniture, construction, automotive parts",
	},
	{
		MaterialID:  "paper",
		Name:        "Digital Solutions",
		Icon:        "📱",
		Description: "Digital alternatives reduce paper consumption significantly.",
		Benefits:    []string{"No paper waste", "Instant sharing", "Searchable", "Space-saving"},
		Savings:     "90% less CO2",
		Examples:    "E-books, digital receipts, online forms",
	},
	{
		MaterialID:  "paper",
		Name:        "Recycled Paper",
		Icon:        "♻️",
		Description: "Recycled paper reduces the need for virgin wood pulp.",
		Benefits:    []string{"Reduces deforestation", "Lower energy use", "Same quality", "Cost effective"},
		Savings:     "40% less CO2",
		Examples:    "Notebooks, packaging, printing",
	},
	{
		MaterialID:  "fabric",
		Name:        "Organic Cotton",
		Icon:        "🌱",
		Description: "Organic cotton is grown without harmful pesticides and chemicals.",
		Benefits:    []string{"No pesticides", "Better for soil", "Safer for workers", "Biodegradable"},
		Savings:     "46% less CO2",
		Examples:    "Clothing, towels, bedding",
	},
	{
		MaterialID:  "fabric",
		Name:        "Hemp Fabric",
		Icon:        "🌿",
		Description: "Hemp requires less water and pesticides than conventional cotton.",
		Benefits:    []string{"Low water use", "No pesticides", "Durable", "Biodegradable"},
		Savings:     "58% less CO2",
		Examples:    "Clothing, bags, rope",
	},
	{
		MaterialID:  "glass",
		Name:        "Recycled Glass",
		Icon:        "♻️",
		Description: "Recycled glass uses less energy and raw materials.",
		Benefits:    []string{"Lower energy use", "Reduces waste", "Same quality", "Cost effective"},
		Savings:     "30% less CO2",
		Examples:    "Bottles, jars, windows",
	},
	{
		MaterialID:  "wood",
		Name:        "Bamboo",
		Icon:        "🎋",
		Description: "Bamboo grows much faster than trees and is highly renewable.",
		Benefits:    []string{"Fast growing", "Renewable", "Strong", "Versatile"},
		Savings:     "60% less CO2",
		Examples:    "Furniture, flooring, construction",
	},
	{
		MaterialID:  "wood",
		Name:        "Reclaimed Wood",
		Icon:        "🪵",
		Description: "Reclaimed wood gives new life to old materials.",
		Benefits:    []string{"No new trees cut", "Unique character", "Durable", "Sustainable"},
		Savings:     "100% less CO2",
		Examples:    "Furniture, flooring, decor",
	},
	{
		MaterialID:  "ceramic",
		Name:        "Recycled Ceramic",
		Icon:        "♻️",
		Description: "Recycled ceramic reduces the need for new clay extraction.",
		Benefits:    []string{"Reduces mining", "Lower energy use", "Same quality", "Sustainable"},
		Savings:     "25% less CO2",
		Examples:    "Tiles, pottery, tableware",
	},
	{
		MaterialID:  "rubber",
		Name:        "Natural Rubber",
		Icon:        "🌿",
		Description: "Natural rubber from sustainable sources is more eco-friendly.",
		Benefits:    []string{"Biodegradable", "Renewable", "Natural", "Durable"},
		Savings:     "40% less CO2",
		Examples:    "Tires, shoes, gloves",
	},
}
