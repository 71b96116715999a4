package models

// Product is a tracked perishable item. The scheduler only reads ID, Name
// and ExpiryDate.
type Product struct {
	ID          string   `bson:"id" firestore:"-" json:"id"`
	UserID      string   `bson:"userId" firestore:"userId" json:"userId"`
	Name        string   `bson:"name" firestore:"name" json:"name"`
	ExpiryDate  string   `bson:"expiryDate,omitempty" firestore:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	Ingredients []string `bson:"ingredients,omitempty" firestore:"ingredients,omitempty" json:"ingredients,omitempty"`
	Rating      *Rating  `bson:"rating,omitempty" firestore:"rating,omitempty" json:"rating,omitempty"`
}

// Rating is the healthiness score attached by the rating service.
type Rating struct {
	Score int    `bson:"score" firestore:"score" json:"score"`
	Notes string `bson:"notes,omitempty" firestore:"notes,omitempty" json:"notes,omitempty"`
}
