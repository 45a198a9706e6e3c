package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// sampleDefinition exposes vehicle as car and bike, plus a merged view.
const sampleDefinition = `# Parent entity split across a parent table and child tables
schema: public
alias: vehicle
table: vehicle
pkey: id
pkey_value: nextval('vehicle_id_seq')
allow_parent_only: true
children:
  car:
    table: car
    pkey: id
  bike:
    table: bike
    pkey: id
    remap:
      wheel_size: bike_wheel_size
merge_view:
  name: vw_vehicle_all
  allow_type_change: false
  additional_columns:
    label: model_name || ' (' || year || ')'
  merge_columns:
    max_speed:
      car: top_speed
      bike: max_speed
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a sample definition file",
	Long: `Create a sample definition file describing a vehicle parent table with car
and bike children. Edit it to match your tables.

Examples:
  inheritview init                      # Create definition.yaml
  inheritview init -f vehicle.yaml      # Create vehicle.yaml
`,
	Run: func(cmd *cobra.Command, args []string) {
		path := definitionFile
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("❌ %s already exists!\n", path)
			return
		}

		if err := os.WriteFile(path, []byte(sampleDefinition), 0644); err != nil {
			fmt.Printf("❌ Error creating %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("✅ Created %s example file.\n", path)
		fmt.Printf("📝 Edit %s to describe your parent and child tables\n", path)
		fmt.Println("🚀 Run 'inheritview generate' to create the views and triggers")
	},
}
