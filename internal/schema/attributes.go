// Package schema defines the fixed attribute catalog the extraction pipeline
// fills in, plus the confidence vocabulary shared by every stage.
// The catalog is built once at process start and never mutated, so it is safe
// for unsynchronized concurrent reads.
package schema

// Category groups attributes by the kind of evidence that usually fills them.
type Category string

const (
	CategoryPhysical   Category = "physical"
	CategoryTechnical  Category = "technical"
	CategoryFeature    Category = "feature"
	CategoryCapability Category = "capability"
)

// AttributeSpec names one attribute the pipeline extracts.
type AttributeSpec struct {
	Name     string
	Category Category
}

// cameraCatalog is the built-in catalog for camera products. Order matters:
// export columns and profile iteration follow this order.
var cameraCatalog = []AttributeSpec{
	{Name: "Color", Category: CategoryPhysical},
	{Name: "Body Material", Category: CategoryPhysical},
	{Name: "Dimensions", Category: CategoryPhysical},
	{Name: "Weight", Category: CategoryPhysical},
	{Name: "Sensor Type", Category: CategoryTechnical},
	{Name: "Display Type", Category: CategoryTechnical},
	{Name: "Viewfinder Type", Category: CategoryTechnical},
	{Name: "Battery Type", Category: CategoryTechnical},
	{Name: "Memory Card Slot", Category: CategoryFeature},
	{Name: "USB Port Type", Category: CategoryFeature},
	{Name: "Hot Shoe Mount", Category: CategoryFeature},
	{Name: "Tripod Socket", Category: CategoryFeature},
	{Name: "Low Pass Filter", Category: CategoryTechnical},
	{Name: "Auto White Balance", Category: CategoryFeature},
	{Name: "AE Lock Button", Category: CategoryFeature},
	{Name: "Shutter Release Type", Category: CategoryFeature},
	{Name: "Lens Mount", Category: CategoryTechnical},
	{Name: "Connectivity Features", Category: CategoryCapability},
	{Name: "Video Capabilities", Category: CategoryCapability},
	{Name: "Autofocus System", Category: CategoryCapability},
}

// Catalog is an ordered, immutable attribute list.
type Catalog struct {
	specs []AttributeSpec
	index map[string]int
}

// NewCatalog builds a catalog from the given specs, preserving order.
func NewCatalog(specs []AttributeSpec) *Catalog {
	c := &Catalog{
		specs: make([]AttributeSpec, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	copy(c.specs, specs)
	for i, s := range c.specs {
		c.index[s.Name] = i
	}
	return c
}

// CameraCatalog returns the built-in 20-attribute camera catalog.
func CameraCatalog() *Catalog {
	return NewCatalog(cameraCatalog)
}

// Specs returns the attribute specs in declaration order.
// The returned slice must not be modified.
func (c *Catalog) Specs() []AttributeSpec {
	return c.specs
}

// Names returns the attribute names in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.specs))
	for i, s := range c.specs {
		names[i] = s.Name
	}
	return names
}

// Has reports whether the catalog defines the named attribute.
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Len returns the number of attributes in the catalog.
func (c *Catalog) Len() int {
	return len(c.specs)
}
