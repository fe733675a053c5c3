package pipeline

// sampleCSV has one duplicate (line 4 repeats line 3), a missing customer,
// a missing category and a missing price.
const sampleCSV = `OrderID,CustomerID,ProductCategory,Quantity,Price,OrderDate
1,,Books,2,,bad-date
2,C1,Books,1,10.00,2024-01-02
3,C2,Toys,3,5,2024-01-03
3,C2,Toys,3,5,2024-01-03
4,C3,,1,7.5,2024-01-04
5,C1,Garden,4,2.5,01/15/2024
6,C4,Toys,2,20,2024-01-06
7,C5,Books,,12,2024-01-07
`
