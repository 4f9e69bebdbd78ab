// Package testutil provides shared test infrastructure for the warehouse
// simulator: float assertions and a small on-disk reference dataset.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// SmallDataset is a three-day warehouse in the CSV layout the loader reads:
// a sort area, two pallet-jack aisles and one reach-fork cell, three items,
// one shipment and three orders. Keys are deliberately not in id order.
var SmallDataset = map[string]string{
	"dates.csv": `date,short_day
2023-01-02,False
2023-01-03,False
2023-01-06,True
`,
	"cells.csv": `location,aisle,x_length,y_width,z_height,cell_attractiveness,fetch_tool,putaway_zone,available_volume,max_volume,distance_from_io_to_aisle,fetch_zone
SORT01,0,,,,0,Cross Dock,SORT,1000,1000,0,S
A-01-2,1,4,2,0,0.8,Pallet Jack,FLOOR,20,40,10,F
A-01-1,1,2,2,0,0.9,Pallet Jack,FLOOR,30,40,10,F
B-02-1,2,3,6,0,0.5,Pallet Jack,FLOOR,40,40,20,F
C-03-5,3,1,10,5,0.7,Reach Fork,HIGH,50,50,30,H
`,
	"items.csv": `uuid,putaway_zone,item_volume,item_attractiveness,initial_stock
item-b,FLOOR,1,0.5,10
item-a,FLOOR,2,0.9,5
item-c,HIGH,0.5,0.1,0
`,
	"positions.csv": `location,uuid,quantity
A-01-1,item-a,5
A-01-2,item-b,10
`,
	"shipments.csv": `date,uuid,quantity
2023-01-03,item-c,8
`,
	"orders.csv": `timestamp,uuid,quantity
2023-01-02 10:00:00,item-b,3
2023-01-02 09:30:00,item-a,2
2023-01-02 11:00:00,item-c,4
2023-01-07 08:00:00,item-a,1
`,
	"fetch_tools_speeds_mean_and_std.csv": `fetch_tool,horizontal_speed_mean,horizontal_speed_std,vertical_speed_mean,vertical_speed_std,remove_from_shelf_time_mean,remove_from_shelf_time_std
Pallet Jack,1.5,0.1,0.5,0.05,20,2
Reach Fork,1.2,0.1,0.4,0.05,40,5
Order Picker,1.0,0.1,0.3,0.05,30,3
`,
	"tool_capacity.csv": `fetch_tool,max_volume
Pallet Jack,20
Reach Fork,10
Order Picker,5
`,
}

// WriteDataDir writes files into a fresh temporary directory and returns it.
func WriteDataDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

// WithFile returns a copy of files with name replaced by content.
func WithFile(files map[string]string, name, content string) map[string]string {
	out := make(map[string]string, len(files))
	for k, v := range files {
		out[k] = v
	}
	out[name] = content
	return out
}
