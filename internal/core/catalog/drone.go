package catalog

// DroneEntries is the quadcopter part table.
func DroneEntries() []Entry {
	return []Entry{
		{Kind: BottomPlate, Label: "Bottom Plate", Category: CategoryFrame, Asset: "/bottom_plate.glb"},
		{Kind: Arm, Label: "Arm", Category: CategoryFrame, Asset: "/arm.glb"},
		{Kind: TopPlate, Label: "Top Plate", Category: CategoryFrame, Asset: "/top_plate.glb"},
		{Kind: Motor, Label: "Motor", Category: CategoryPropulsion, Asset: "/motor.glb"},
		{Kind: Propellor, Label: "Propellor", Category: CategoryPropulsion, Asset: "/propellor.glb"},
	}
}

// DroneSequence is the guided quadcopter build: frame first, then motors.
func DroneSequence() []BuildStep {
	return []BuildStep{
		{ID: "bottom_plate", Kind: BottomPlate, Label: "Bottom Plate", DefaultElevation: 0},
		{ID: "arm_fr", Kind: Arm, Label: "Front Right Arm", DefaultElevation: 0.15},
		{ID: "arm_fl", Kind: Arm, Label: "Front Left Arm", DefaultElevation: 0.15},
		{ID: "arm_br", Kind: Arm, Label: "Back Right Arm", DefaultElevation: 0.15},
		{ID: "arm_bl", Kind: Arm, Label: "Back Left Arm", DefaultElevation: 0.15},
		{ID: "top_plate", Kind: TopPlate, Label: "Top Plate", DefaultElevation: 0.30},
		{ID: "motor_fr", Kind: Motor, Label: "Motor FR", DefaultElevation: 0.35},
		{ID: "motor_fl", Kind: Motor, Label: "Motor FL", DefaultElevation: 0.35},
		{ID: "motor_br", Kind: Motor, Label: "Motor BR", DefaultElevation: 0.35},
		{ID: "motor_bl", Kind: Motor, Label: "Motor BL", DefaultElevation: 0.35},
	}
}

// Drone returns the built-in quadcopter catalog with its guided sequence.
func Drone() *Catalog {
	c, err := New(DroneEntries(), DroneSequence())
	if err != nil {
		panic(err)
	}
	return c
}
