package window

import "fmt"

func ExampleTaper_Blend() {
	w, _ := Taper{Shape: ShapeHann}.Blend(5)
	fmt.Printf("%.2f %.2f %.2f %.2f %.2f\n", w[0], w[1], w[2], w[3], w[4])
	// Output:
	// 1.00 0.50 0.00 0.50 1.00
}

func ExampleApplyInPlace() {
	pad := []float64{2, 2, 2, 2, 2}
	w, _ := Taper{Shape: ShapeWelch}.Blend(len(pad))
	_ = ApplyInPlace(pad, w)
	fmt.Printf("%.2f %.2f %.2f %.2f %.2f\n", pad[0], pad[1], pad[2], pad[3], pad[4])
	// Output:
	// 2.00 0.50 0.00 0.50 2.00
}
