package catalog

import (
	"fmt"
	"strings"

	"export-assistant/internal/models"
)

const unsplash = "https://images.unsplash.com/photo-%s?auto=format&fit=crop&q=80&w=%d"

// generatedProducts pads the catalog with one generic unit per category
// in rotation.
const generatedProducts = 52

// SeedProducts returns the built-in catalog.
func SeedProducts() []models.Product {
	products := []models.Product{
		machine("M1", "Industrial CNC Lathe - XP Series", "1537462715879-360eeb61a0ad",
			"High-precision heavy-duty CNC lathe with linear guideways and 8-station hydraulic turret. Features Fanuc/Siemens controller options.",
			"Automotive shaft production, aerospace fasteners, and heavy engineering components."),
		machine("M2", "Vertical Machining Center (VMC) - 850", "1504328345606-18bbc8c9d7d1",
			"High-speed machining center with 8000 RPM spindle and 24-tool ATC. Rigid structure for vibration-free heavy cutting.",
			"Die and mold manufacturing, precision aerospace structural parts, and medical device components."),
		machine("M3", "Hydraulic H-Frame Press - 500T", "1581092160562-40aa08e78837",
			"Heavy-duty 500-ton hydraulic H-frame press with double-acting cylinder. Ideal for deep drawing and high-pressure stamping.",
			"Automotive body panel forming, heavy appliance stamping, and industrial powder metallurgy."),
		machine("M4", "Servo Plastic Injection Molding Machine", "1581091226825-a6a2a5aee158",
			"Energy-efficient servo-driven molding machine with high-precision clamping unit and 5-point toggle mechanism.",
			"Manufacturing of consumer electronics housings, automotive interior trims, and medical disposables."),
		machine("M5", "CNC Wire Cut EDM Machine", "1518709766631-a6a7f4593b6f",
			"Advanced EDM with high-speed wire feed and automatic threading. Capable of machining complex shapes in hardened steels.",
			"Extrusion die manufacturing, complex punch-die sets, and graphite electrode machining."),
		machine("M6", "Radial Drilling Machine - 100mm", "1537462715879-360eeb61a0ad",
			"Heavy-duty geared radial drill with motorized arm elevation and centralized controls for ease of operation.",
			"Drilling, reaming, and tapping of large workpieces in shipbuilding and structural fabrication."),
		machine("M7", "Surface Grinding Machine - Auto Feed", "1504917595217-d4dc5ebe6122",
			"Industrial-grade automatic surface grinder with heavy cast iron base and precision hydraulic feed for mirror finish.",
			"Precision finishing of die sets, machine guideways, and high-tolerance industrial plates."),
		machine("M8", "Power Press - C Frame 100T", "1565153940428-f1f383e20689",
			"Mechanical power press with pneumatic clutch and brake. High-frequency stamping capability for mass production.",
			"Blanking, piercing, and bending of small to medium metal components for appliances."),
	}

	for i := 0; i < generatedProducts; i++ {
		cat := models.Categories[i%len(models.Categories)]
		products = append(products, models.Product{
			ID:       fmt.Sprintf("GEN-%d", i),
			Name:     fmt.Sprintf("Industrial %s Unit Gen-%d", cat, i+10),
			Category: cat,
			Description: fmt.Sprintf("High-performance industrial component engineered for export quality and long-term durability in high-demand %s applications.",
				strings.ToLower(string(cat))),
			Application:    "Aerospace, Automotive, and General Engineering high-precision requirements.",
			Image:          fmt.Sprintf(unsplash, fmt.Sprint(1581091226825+i), 1200),
			ManufacturedIn: "India",
		})
	}
	return products
}

func machine(id, name, photo, description, application string) models.Product {
	return models.Product{
		ID:             id,
		Name:           name,
		Category:       models.CategoryMachinery,
		Description:    description,
		Application:    application,
		Image:          fmt.Sprintf(unsplash, photo, 1200),
		ManufacturedIn: "India",
	}
}

// SeedLeadership returns the built-in leadership profile.
func SeedLeadership() models.Leadership {
	return models.Leadership{
		CEO: models.Leader{
			Name:        "Mrs. Savita Devi",
			Designation: "Chief Executive Officer (CEO)",
			Image:       fmt.Sprintf(unsplash, "1573496359142-b8d87734a5a2", 800),
			Message:     "At Savita Global, we are committed to redefining industrial excellence. Our products are engineered to meet the most stringent international standards, ensuring that 'Made in India' is a global mark of trust, precision, and reliability.",
		},
		OpsHead: models.Leader{
			Name:        "Mr. Shailesh Yadav",
			Designation: "Operational Manager",
			Image:       fmt.Sprintf(unsplash, "1519085360753-af0119f7cbe7", 800),
			Message:     "Operational efficiency and uncompromising quality control are the pillars of our export success. My mission is to ensure that every machine and precision part leaving our facility exceeds client expectations in performance and delivery.",
		},
	}
}
